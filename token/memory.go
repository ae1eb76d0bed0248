// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"sync"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/counter"
	"github.com/bitmark-inc/driverd/fault"
)

// MemoryToken - in-memory value token for the local and testing chains
//
// conserves amounts exactly and honours the allowance rules, so the
// custody paths behave as they would against a real token contract
type MemoryToken struct {
	sync.RWMutex
	symbol     string
	balances   map[account.Account]uint64
	allowances map[allowanceKey]uint64

	// ApprovalCalls - count of Approve invocations, so tests can
	// observe the lazy allowance grant happening exactly once
	ApprovalCalls counter.Counter
}

type allowanceKey struct {
	owner   account.Account
	spender account.Account
}

// NewMemoryToken - create an empty in-memory token
func NewMemoryToken(symbol string) *MemoryToken {
	return &MemoryToken{
		symbol:     symbol,
		balances:   make(map[account.Account]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

// Symbol - short unique name of the token
func (t *MemoryToken) Symbol() string {
	return t.symbol
}

// Issue - create new supply on an account
//
// only for funding local chain and test accounts
func (t *MemoryToken) Issue(to account.Account, amount uint64) {
	t.Lock()
	t.balances[to] += amount
	t.Unlock()
}

// BalanceOf - current balance of an account
func (t *MemoryToken) BalanceOf(owner account.Account) uint64 {
	t.RLock()
	defer t.RUnlock()
	return t.balances[owner]
}

// Transfer - move amount from the acting account to another
func (t *MemoryToken) Transfer(from account.Account, to account.Account, amount uint64) error {
	if to.IsZero() {
		return fault.TransferToZeroAccount
	}

	t.Lock()
	defer t.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom - move amount between third parties using the
// spender's allowance from the source account
func (t *MemoryToken) TransferFrom(spender account.Account, from account.Account, to account.Account, amount uint64) error {
	if to.IsZero() {
		return fault.TransferToZeroAccount
	}

	t.Lock()
	defer t.Unlock()

	key := allowanceKey{owner: from, spender: spender}
	allowance := t.allowances[key]
	if allowance < amount {
		return fault.InsufficientAllowance
	}

	if err := t.move(from, to, amount); nil != err {
		return err
	}

	// the maximum allowance is never consumed
	if MaxAllowance != allowance {
		t.allowances[key] = allowance - amount
	}
	return nil
}

// Approve - set the spender's allowance from the acting account
func (t *MemoryToken) Approve(owner account.Account, spender account.Account, amount uint64) error {
	t.ApprovalCalls.Increment()

	t.Lock()
	t.allowances[allowanceKey{owner: owner, spender: spender}] = amount
	t.Unlock()
	return nil
}

// Allowance - the spender's remaining allowance from an account
func (t *MemoryToken) Allowance(owner account.Account, spender account.Account) uint64 {
	t.RLock()
	defer t.RUnlock()
	return t.allowances[allowanceKey{owner: owner, spender: spender}]
}

// need to hold the lock before calling this
func (t *MemoryToken) move(from account.Account, to account.Account, amount uint64) error {
	balance := t.balances[from]
	if balance < amount {
		return fault.InsufficientBalance
	}
	t.balances[from] = balance - amount
	t.balances[to] += amount
	return nil
}
