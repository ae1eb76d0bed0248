// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package credential_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/credential"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/storage"
)

const (
	databaseFileName = "test-credential.leveldb"
	testingDirName   = "testing"
)

func TestMain(m *testing.M) {
	_ = os.Mkdir(testingDirName, 0700)
	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	rc := m.Run()
	os.RemoveAll(testingDirName)
	os.Exit(rc)
}

func setup(t *testing.T) {
	os.RemoveAll(databaseFileName)
	err := storage.Initialise(databaseFileName)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	storage.Finalise()
	os.RemoveAll(databaseFileName)
}

func testAccount(fill byte) account.Account {
	var a account.Account
	for i := 0; i < account.AccountLength; i += 1 {
		a[i] = fill
	}
	return a
}

// run a mutation inside a committed transaction
func inTransaction(t *testing.T, f func(storage.Transaction) error) error {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}
	if err := f(trx); nil != err {
		trx.Abort()
		return err
	}
	if err := trx.Commit(); nil != err {
		t.Fatalf("commit error: %s", err)
	}
	return nil
}

func mint(t *testing.T, identity identifier.Identity, to account.Account) {
	err := inTransaction(t, func(trx storage.Transaction) error {
		return credential.Mint(trx, identity, to)
	})
	assert.NoError(t, err, "mint")
}

func TestMintAndOwner(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := testAccount(0x01)
	identity := identifier.New(1, 0)

	mint(t, identity, alice)

	owner, err := credential.OwnerOf(nil, identity)
	assert.NoError(t, err, "owner of")
	assert.Equal(t, alice, owner, "owner")

	// duplicate mint must be refused
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.Mint(trx, identity, testAccount(0x02))
	})
	assert.Equal(t, fault.IdentityAlreadyExists, err, "duplicate mint")

	// zero owner must be refused
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.Mint(trx, identifier.New(1, 1), account.Account{})
	})
	assert.Equal(t, fault.MintToZeroAccount, err, "zero owner")

	// unknown identity
	_, err = credential.OwnerOf(nil, identifier.New(1, 99))
	assert.Equal(t, fault.IdentityDoesNotExist, err, "unknown identity")
}

func TestAccessGuard(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := testAccount(0x01)
	bob := testAccount(0x02)
	carol := testAccount(0x03)
	villain := testAccount(0x66)
	identity := identifier.New(1, 0)

	mint(t, identity, alice)

	check := func(caller account.Account, expected bool) {
		ok, err := credential.IsApprovedOrOwner(caller, identity)
		assert.NoError(t, err, "access guard")
		assert.Equal(t, expected, ok, "authorisation for %s", caller)
	}

	check(alice, true)
	check(bob, false)
	check(villain, false)

	// single credential approval
	err := inTransaction(t, func(trx storage.Transaction) error {
		return credential.Approve(trx, alice, identity, bob)
	})
	assert.NoError(t, err, "approve")
	check(bob, true)
	check(villain, false)

	// only the owner or an operator may approve
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.Approve(trx, villain, identity, villain)
	})
	assert.Equal(t, fault.Unauthorized, err, "approve by stranger")

	// operator approval covers all credentials of the owner
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.SetApprovalForAll(trx, alice, carol, true)
	})
	assert.NoError(t, err, "set approval for all")
	check(carol, true)

	// revoke operator
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.SetApprovalForAll(trx, alice, carol, false)
	})
	assert.NoError(t, err, "revoke approval for all")
	check(carol, false)
}

func TestTransferRevokesApproval(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := testAccount(0x01)
	bob := testAccount(0x02)
	carol := testAccount(0x03)
	identity := identifier.New(1, 0)

	mint(t, identity, alice)

	err := inTransaction(t, func(trx storage.Transaction) error {
		return credential.Approve(trx, alice, identity, bob)
	})
	assert.NoError(t, err, "approve")

	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.Transfer(trx, alice, identity, carol)
	})
	assert.NoError(t, err, "transfer")

	owner, err := credential.OwnerOf(nil, identity)
	assert.NoError(t, err, "owner of")
	assert.Equal(t, carol, owner, "new owner")

	// the old approval is gone
	ok, err := credential.IsApprovedOrOwner(bob, identity)
	assert.NoError(t, err, "access guard")
	assert.False(t, ok, "approval must be revoked by transfer")

	// the old owner lost control
	ok, err = credential.IsApprovedOrOwner(alice, identity)
	assert.NoError(t, err, "access guard")
	assert.False(t, ok, "previous owner must lose control")

	// a stranger cannot transfer
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.Transfer(trx, alice, identity, bob)
	})
	assert.Equal(t, fault.Unauthorized, err, "transfer by previous owner")
}

func TestBurn(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := testAccount(0x01)
	identity := identifier.New(1, 0)

	mint(t, identity, alice)

	err := inTransaction(t, func(trx storage.Transaction) error {
		return credential.Burn(trx, alice, identity)
	})
	assert.NoError(t, err, "burn")

	_, err = credential.OwnerOf(nil, identity)
	assert.Equal(t, fault.IdentityDoesNotExist, err, "burned identity")
}

func TestListCredentialsFor(t *testing.T) {
	setup(t)
	defer teardown(t)

	alice := testAccount(0x01)
	bob := testAccount(0x02)

	one := identifier.New(1, 0)
	two := identifier.New(1, 1)
	three := identifier.New(1, 2)

	mint(t, one, alice)
	mint(t, two, alice)
	mint(t, three, alice)

	list, next, err := credential.ListCredentialsFor(alice, 0, 10)
	assert.NoError(t, err, "list")
	assert.Equal(t, []identifier.Identity{one, two, three}, list, "owned credentials")
	assert.Equal(t, uint64(0), next, "list exhausted")

	// transferring away leaves a gap which is skipped
	err = inTransaction(t, func(trx storage.Transaction) error {
		return credential.Transfer(trx, alice, two, bob)
	})
	assert.NoError(t, err, "transfer")

	list, _, err = credential.ListCredentialsFor(alice, 0, 10)
	assert.NoError(t, err, "list after transfer")
	assert.Equal(t, []identifier.Identity{one, three}, list, "remaining credentials")

	list, _, err = credential.ListCredentialsFor(bob, 0, 10)
	assert.NoError(t, err, "list for receiver")
	assert.Equal(t, []identifier.Identity{two}, list, "received credential")

	// paging by single step returns a resume position
	page, next, err := credential.ListCredentialsFor(alice, 0, 1)
	assert.NoError(t, err, "paged list")
	assert.Equal(t, []identifier.Identity{one}, page, "first page")
	assert.Equal(t, uint64(1), next, "resume position")

	_, _, err = credential.ListCredentialsFor(alice, 0, 0)
	assert.Equal(t, fault.InvalidCount, err, "invalid count")
}
