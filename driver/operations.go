// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package driver

import (
	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/credential"
	"github.com/bitmark-inc/driverd/custody"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/ledger"
	"github.com/bitmark-inc/driverd/relay"
	"github.com/bitmark-inc/driverd/storage"
	"github.com/bitmark-inc/driverd/token"
)

// caller resolution and access check in one place so that every
// operation guards the same way
func authorise(call relay.Call, identity identifier.Identity) (account.Account, error) {
	caller := relay.Resolve(call)
	ok, err := credential.IsApprovedOrOwner(caller, identity)
	if nil != err {
		return account.Account{}, err
	}
	if !ok {
		return account.Account{}, fault.Unauthorized
	}
	return caller, nil
}

func isInitialised() error {
	globalData.RLock()
	defer globalData.RUnlock()
	if !globalData.initialised {
		return fault.NotInitialised
	}
	return nil
}

// Mint - allocate a fresh identity and create its credential
//
// open to any caller; the credential is created for the named receiver
// which need not be the caller. Optional metadata is announced to the
// ledger in the same operation.
func Mint(call relay.Call, to account.Account, metadata []ledger.UserMetadata) (identifier.Identity, error) {
	if err := isInitialised(); nil != err {
		return 0, err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller := relay.Resolve(call)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return 0, err
	}

	identity := identifier.Allocate(trx, globalData.tag)
	if err := credential.Mint(trx, identity, to); nil != err {
		trx.Abort()
		return 0, err
	}

	// announce metadata before the local commit: a ledger rejection
	// must leave the identity unallocated
	if 0 != len(metadata) {
		if err := globalData.ldgr.EmitMetadata(identity, metadata); nil != err {
			trx.Abort()
			return 0, err
		}
	}

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return 0, err
	}

	globalData.log.Infof("mint: identity: %v  to: %s  caller: %s", identity, to, caller)
	return identity, nil
}

// Collect - receive the identity's collectable funds
//
// whatever the ledger pays out lands in the custody account and is
// forwarded in full to transferTo
func Collect(call relay.Call, identity identifier.Identity, symbol string, transferTo account.Account) (uint64, error) {
	if err := isInitialised(); nil != err {
		return 0, err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller, err := authorise(call, identity)
	if nil != err {
		return 0, err
	}
	if transferTo.IsZero() {
		return 0, fault.TransferToZeroAccount
	}

	tok, err := token.Get(symbol)
	if nil != err {
		return 0, err
	}

	amount, err := globalData.ldgr.Collect(identity, tok)
	if nil != err {
		return 0, err
	}
	if amount > 0 {
		if err := custody.Withdraw(transferTo, tok, amount); nil != err {
			// the ledger already paid out, so the amount is stranded
			// in custody
			fault.Criticalf("collect: forwarding %d %s to %s failed: %s", amount, symbol, transferTo, err)
			return 0, fault.TransferFailed
		}
	}

	globalData.log.Infof("collect: identity: %v  %s: %d  to: %s  caller: %s", identity, symbol, amount, transferTo, caller)
	return amount, nil
}

// Give - pull funds from the caller and donate them to a receiver identity
func Give(call relay.Call, identity identifier.Identity, receiver identifier.Identity, symbol string, amount uint64) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller, err := authorise(call, identity)
	if nil != err {
		return err
	}

	tok, err := token.Get(symbol)
	if nil != err {
		return err
	}

	if 0 == amount {
		return nil
	}

	if err := custody.Deposit(caller, tok, amount); nil != err {
		return err
	}
	if err := globalData.ldgr.Give(identity, receiver, tok, amount); nil != err {
		custody.Refund(caller, tok, amount)
		return err
	}

	globalData.log.Infof("give: identity: %v  receiver: %v  %s: %d  caller: %s", identity, receiver, symbol, amount, caller)
	return nil
}

// SetStreams - reconfigure the identity's streams and adjust its balance
//
// a positive delta is pulled in full from the caller before the ledger
// call; a negative delta is a withdrawal request which the ledger may
// clamp, and the realized amount is forwarded to transferTo. The
// realized delta is returned.
func SetStreams(call relay.Call, identity identifier.Identity, symbol string, currentReceivers []ledger.StreamReceiver, balanceDelta int64, newReceivers []ledger.StreamReceiver, transferTo account.Account) (int64, error) {
	if err := isInitialised(); nil != err {
		return 0, err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller, err := authorise(call, identity)
	if nil != err {
		return 0, err
	}

	// the payout target must be checked before any funds move
	if balanceDelta < 0 && transferTo.IsZero() {
		return 0, fault.TransferToZeroAccount
	}

	tok, err := token.Get(symbol)
	if nil != err {
		return 0, err
	}

	if balanceDelta > 0 {
		if err := custody.Deposit(caller, tok, uint64(balanceDelta)); nil != err {
			return 0, err
		}
	}

	realized, err := globalData.ldgr.SetStreams(identity, tok, currentReceivers, balanceDelta, newReceivers, 0, 0)
	if nil != err {
		if balanceDelta > 0 {
			custody.Refund(caller, tok, uint64(balanceDelta))
		}
		return 0, err
	}

	if realized < 0 {
		if err := custody.Withdraw(transferTo, tok, uint64(-realized)); nil != err {
			// the ledger already released the balance, so the amount
			// is stranded in custody
			fault.Criticalf("set streams: forwarding %d %s to %s failed: %s", -realized, symbol, transferTo, err)
			return 0, fault.TransferFailed
		}
	}

	globalData.log.Infof("set streams: identity: %v  %s delta: %d  realized: %d  caller: %s", identity, symbol, balanceDelta, realized, caller)
	return realized, nil
}

// SetSplits - replace the identity's splits configuration
func SetSplits(call relay.Call, identity identifier.Identity, receivers []ledger.SplitsReceiver) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller, err := authorise(call, identity)
	if nil != err {
		return err
	}

	if err := globalData.ldgr.SetSplits(identity, receivers); nil != err {
		return err
	}

	globalData.log.Infof("set splits: identity: %v  receivers: %d  caller: %s", identity, len(receivers), caller)
	return nil
}

// EmitMetadata - announce arbitrary key-value metadata for an identity
func EmitMetadata(call relay.Call, identity identifier.Identity, metadata []ledger.UserMetadata) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller, err := authorise(call, identity)
	if nil != err {
		return err
	}

	if 0 == len(metadata) {
		return nil
	}

	if err := globalData.ldgr.EmitMetadata(identity, metadata); nil != err {
		return err
	}

	globalData.log.Infof("emit metadata: identity: %v  entries: %d  caller: %s", identity, len(metadata), caller)
	return nil
}
