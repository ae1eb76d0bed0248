// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package driver

// credential management operations: thin transactional wrappers around
// the credential package with the same caller resolution as the funds
// operations

import (
	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/credential"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/relay"
	"github.com/bitmark-inc/driverd/storage"
)

// Approve - approve one account for a single credential
func Approve(call relay.Call, identity identifier.Identity, approved account.Account) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller := relay.Resolve(call)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	if err := credential.Approve(trx, caller, identity, approved); nil != err {
		trx.Abort()
		return err
	}
	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	globalData.log.Infof("approve: identity: %v  approved: %s  caller: %s", identity, approved, caller)
	return nil
}

// SetApprovalForAll - approve or revoke an operator for all of the
// caller's credentials
func SetApprovalForAll(call relay.Call, operator account.Account, approved bool) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller := relay.Resolve(call)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	if err := credential.SetApprovalForAll(trx, caller, operator, approved); nil != err {
		trx.Abort()
		return err
	}
	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	globalData.log.Infof("set approval for all: operator: %s  approved: %t  caller: %s", operator, approved, caller)
	return nil
}

// TransferCredential - transfer a credential to a new owner
func TransferCredential(call relay.Call, identity identifier.Identity, newOwner account.Account) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller := relay.Resolve(call)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	if err := credential.Transfer(trx, caller, identity, newOwner); nil != err {
		trx.Abort()
		return err
	}
	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	globalData.log.Infof("transfer credential: identity: %v  new owner: %s  caller: %s", identity, newOwner, caller)
	return nil
}

// Burn - destroy a credential
//
// the identity remains allocated forever; only control over it ends
func Burn(call relay.Call, identity identifier.Identity) error {
	if err := isInitialised(); nil != err {
		return err
	}

	globalData.opLock.Lock()
	defer globalData.opLock.Unlock()

	caller := relay.Resolve(call)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}
	if err := credential.Burn(trx, caller, identity); nil != err {
		trx.Abort()
		return err
	}
	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	globalData.log.Infof("burn: identity: %v  caller: %s", identity, caller)
	return nil
}
