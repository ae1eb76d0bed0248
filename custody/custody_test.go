// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package custody_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/custody"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/token"
)

const testingDirName = "testing"

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

func testAccount(fill byte) account.Account {
	var a account.Account
	for i := 0; i < account.AccountLength; i += 1 {
		a[i] = fill
	}
	return a
}

var (
	self    = testAccount(0xdd)
	reserve = testAccount(0xee)
)

func setup(t *testing.T) {
	err := custody.Initialise(self, reserve)
	if nil != err {
		t.Fatalf("custody initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	custody.Finalise()
}

// a funded caller that has approved the driver as spender
func fundedCaller(tok *token.MemoryToken, fill byte, amount uint64) account.Account {
	caller := testAccount(fill)
	tok.Issue(caller, amount)
	tok.Approve(caller, custody.Self(), token.MaxAllowance)
	return caller
}

func TestDepositPullsExactAmount(t *testing.T) {
	setup(t)
	defer teardown(t)

	tok := token.NewMemoryToken("TST")
	caller := fundedCaller(tok, 0x01, 100)

	err := custody.Deposit(caller, tok, 40)
	assert.NoError(t, err, "deposit")
	assert.Equal(t, uint64(60), tok.BalanceOf(caller), "caller balance")
	assert.Equal(t, uint64(40), tok.BalanceOf(self), "driver custody")
}

func TestDepositLazyAllowance(t *testing.T) {
	setup(t)
	defer teardown(t)

	tok := token.NewMemoryToken("TST")
	caller := fundedCaller(tok, 0x01, 100)

	// the caller's own approval is the only one so far
	assert.Equal(t, uint64(1), tok.ApprovalCalls.Uint64(), "initial approvals")

	err := custody.Deposit(caller, tok, 10)
	assert.NoError(t, err, "first deposit")
	assert.Equal(t, uint64(token.MaxAllowance), tok.Allowance(self, reserve), "reserve allowance")
	assert.Equal(t, uint64(2), tok.ApprovalCalls.Uint64(), "allowance granted once")

	// subsequent deposits skip the grant
	err = custody.Deposit(caller, tok, 10)
	assert.NoError(t, err, "second deposit")
	err = custody.Deposit(caller, tok, 10)
	assert.NoError(t, err, "third deposit")
	assert.Equal(t, uint64(2), tok.ApprovalCalls.Uint64(), "no further approvals")
}

func TestDepositFailures(t *testing.T) {
	setup(t)
	defer teardown(t)

	tok := token.NewMemoryToken("TST")

	// caller without approval
	noApproval := testAccount(0x01)
	tok.Issue(noApproval, 100)
	err := custody.Deposit(noApproval, tok, 10)
	assert.Equal(t, fault.InsufficientAllowance, err, "missing approval")

	// caller without balance
	broke := testAccount(0x02)
	tok.Approve(broke, custody.Self(), token.MaxAllowance)
	err = custody.Deposit(broke, tok, 10)
	assert.Equal(t, fault.InsufficientBalance, err, "missing balance")

	// nothing was pulled by the failed attempts
	assert.Equal(t, uint64(0), tok.BalanceOf(self), "custody untouched")
}

func TestWithdraw(t *testing.T) {
	setup(t)
	defer teardown(t)

	tok := token.NewMemoryToken("TST")
	tok.Issue(self, 50)

	destination := testAccount(0x07)
	err := custody.Withdraw(destination, tok, 50)
	assert.NoError(t, err, "withdraw")
	assert.Equal(t, uint64(50), tok.BalanceOf(destination), "destination balance")
	assert.Equal(t, uint64(0), tok.BalanceOf(self), "custody drained")

	var zero account.Account
	err = custody.Withdraw(zero, tok, 1)
	assert.Equal(t, fault.TransferToZeroAccount, err, "zero destination")
}

func TestRefund(t *testing.T) {
	setup(t)
	defer teardown(t)

	tok := token.NewMemoryToken("TST")
	caller := fundedCaller(tok, 0x01, 100)

	err := custody.Deposit(caller, tok, 30)
	assert.NoError(t, err, "deposit")

	custody.Refund(caller, tok, 30)
	assert.Equal(t, uint64(100), tok.BalanceOf(caller), "caller made whole")
	assert.Equal(t, uint64(0), tok.BalanceOf(self), "custody drained")
}
