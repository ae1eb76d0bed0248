// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package credential - ownership and approval of identity credentials
//
// A credential is the transferable record controlling one ledger
// identity; its identifier is the identity value itself. Each
// credential has at most one owner; an owner can approve a single
// account per credential or an operator for all of its credentials,
// and any approval of a single credential is revoked when that
// credential is transferred.
package credential

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/storage"
)

// to ensure synchronised ownership updates
var toLock sync.Mutex

// from storage/doc.go:
//
// Credentials:
//   O ++ identity          - current owner
//   A ++ identity          - account approved for a single credential
//   P ++ owner ++ operator - operator approved for all of an owner's credentials
//
// Ownership list:
//   C ++ owner             - next count value to use for appending to owned items
//   L ++ owner ++ count    - list of owned credentials
//   D ++ owner ++ identity - position in list of owned credentials, for delete after transfer

// operator approval marker
var approvedMarker = []byte{0x01}

// identity as an 8 byte big endian key
func identityKey(identity identifier.Identity) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(identity))
	return key
}

// Mint - create a credential for a freshly allocated identity
func Mint(trx storage.Transaction, identity identifier.Identity, to account.Account) error {
	if to.IsZero() {
		return fault.MintToZeroAccount
	}

	toLock.Lock()
	defer toLock.Unlock()

	idKey := identityKey(identity)
	if trx.Has(storage.Pool.Owners, idKey) {
		return fault.IdentityAlreadyExists
	}

	trx.Put(storage.Pool.Owners, idKey, to.Bytes())
	appendOwned(trx, to, identity)
	return nil
}

// OwnerOf - current owner of a credential
//
// a nil transaction reads the committed state
func OwnerOf(trx storage.Transaction, identity identifier.Identity) (account.Account, error) {
	var packed []byte
	if nil == trx {
		packed = storage.Pool.Owners.Get(identityKey(identity))
	} else {
		packed = trx.Get(storage.Pool.Owners, identityKey(identity))
	}
	if nil == packed {
		return account.Account{}, fault.IdentityDoesNotExist
	}
	owner, err := account.FromBytes(packed)
	if nil != err {
		logger.Criticalf("credential.OwnerOf: corrupt owner record for: %v", identity)
		logger.Panic("credential.OwnerOf: Owners database corrupt")
	}
	return owner, nil
}

// Approve - approve one account for a single credential
//
// only the owner or one of its operators may approve; a zero account
// clears the approval
func Approve(trx storage.Transaction, caller account.Account, identity identifier.Identity, approved account.Account) error {
	owner, err := OwnerOf(trx, identity)
	if nil != err {
		return err
	}
	if caller != owner && !IsApprovedForAll(owner, caller) {
		return fault.Unauthorized
	}

	idKey := identityKey(identity)
	if approved.IsZero() {
		trx.Delete(storage.Pool.Approvals, idKey)
	} else {
		trx.Put(storage.Pool.Approvals, idKey, approved.Bytes())
	}
	return nil
}

// ApprovedFor - the account approved for a credential, zero if none
func ApprovedFor(identity identifier.Identity) account.Account {
	packed := storage.Pool.Approvals.Get(identityKey(identity))
	if nil == packed {
		return account.Account{}
	}
	approved, err := account.FromBytes(packed)
	if nil != err {
		logger.Criticalf("credential.ApprovedFor: corrupt approval record for: %v", identity)
		logger.Panic("credential.ApprovedFor: Approvals database corrupt")
	}
	return approved
}

// SetApprovalForAll - approve or revoke an operator for all of the
// caller's credentials
func SetApprovalForAll(trx storage.Transaction, owner account.Account, operator account.Account, approved bool) error {
	if operator.IsZero() {
		return fault.TransferToZeroAccount
	}

	key := append(owner.Bytes(), operator.Bytes()...)
	if approved {
		trx.Put(storage.Pool.Operators, key, approvedMarker)
	} else {
		trx.Delete(storage.Pool.Operators, key)
	}
	return nil
}

// IsApprovedForAll - check an operator approval
func IsApprovedForAll(owner account.Account, operator account.Account) bool {
	return storage.Pool.Operators.Has(append(owner.Bytes(), operator.Bytes()...))
}

// IsApprovedOrOwner - the access guard predicate
//
// true iff the caller owns the credential, is individually approved
// for it, or is an operator for its owner
func IsApprovedOrOwner(caller account.Account, identity identifier.Identity) (bool, error) {
	owner, err := OwnerOf(nil, identity)
	if nil != err {
		return false, err
	}
	if caller == owner {
		return true, nil
	}
	if caller == ApprovedFor(identity) {
		return true, nil
	}
	return IsApprovedForAll(owner, caller), nil
}

// Transfer - transfer a credential to a new owner
//
// the caller must be the owner or approved; any single-credential
// approval is revoked by the transfer
func Transfer(trx storage.Transaction, caller account.Account, identity identifier.Identity, newOwner account.Account) error {
	if newOwner.IsZero() {
		return fault.TransferToZeroAccount
	}

	ok, err := IsApprovedOrOwner(caller, identity)
	if nil != err {
		return err
	}
	if !ok {
		return fault.Unauthorized
	}

	toLock.Lock()
	defer toLock.Unlock()

	owner, err := OwnerOf(trx, identity)
	if nil != err {
		return err
	}

	idKey := identityKey(identity)
	trx.Delete(storage.Pool.Approvals, idKey)
	removeOwned(trx, owner, identity)

	trx.Put(storage.Pool.Owners, idKey, newOwner.Bytes())
	appendOwned(trx, newOwner, identity)
	return nil
}

// Burn - destroy a credential
//
// the identity value is never reclaimed or recycled; ledger-side
// state for it simply becomes unreachable
func Burn(trx storage.Transaction, caller account.Account, identity identifier.Identity) error {
	ok, err := IsApprovedOrOwner(caller, identity)
	if nil != err {
		return err
	}
	if !ok {
		return fault.Unauthorized
	}

	toLock.Lock()
	defer toLock.Unlock()

	owner, err := OwnerOf(trx, identity)
	if nil != err {
		return err
	}

	idKey := identityKey(identity)
	trx.Delete(storage.Pool.Owners, idKey)
	trx.Delete(storage.Pool.Approvals, idKey)
	removeOwned(trx, owner, identity)
	return nil
}

// need to hold the lock before calling this
func appendOwned(trx storage.Transaction, owner account.Account, identity identifier.Identity) {
	nextCount, _ := trx.GetN(storage.Pool.OwnerCount, owner.Bytes())

	countKey := make([]byte, 8)
	binary.BigEndian.PutUint64(countKey, nextCount)

	trx.Put(storage.Pool.OwnerList, append(owner.Bytes(), countKey...), identityKey(identity))
	trx.PutN(storage.Pool.OwnerIndex, append(owner.Bytes(), identityKey(identity)...), nextCount)
	trx.PutN(storage.Pool.OwnerCount, owner.Bytes(), nextCount+1)
}

// need to hold the lock before calling this
func removeOwned(trx storage.Transaction, owner account.Account, identity identifier.Identity) {
	dKey := append(owner.Bytes(), identityKey(identity)...)
	count, found := trx.GetN(storage.Pool.OwnerIndex, dKey)
	if !found {
		logger.Criticalf("credential.removeOwned: dKey: %x", dKey)
		logger.Criticalf("credential.removeOwned: owner: %s  identity: %v", owner, identity)
		logger.Panic("credential.removeOwned: OwnerIndex database corrupt")
	}

	countKey := make([]byte, 8)
	binary.BigEndian.PutUint64(countKey, count)

	trx.Delete(storage.Pool.OwnerList, append(owner.Bytes(), countKey...))
	trx.Delete(storage.Pool.OwnerIndex, dKey)
}
