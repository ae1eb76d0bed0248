// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package custody - transient custody of value-token funds
//
// Funding operations pull tokens from the true caller into the
// driver's own account, then the ledger's reserve draws them using a
// lazily granted maximum allowance. The driver holds funds only
// between the pull and the ledger call of a single operation; a
// balance left behind after a call is an invariant violation, never a
// supported state.
package custody

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/token"
)

// globals for the custody configuration
var globalData struct {
	sync.RWMutex
	log     *logger.L
	self    account.Account
	reserve account.Account

	// set once during initialise
	initialised bool
}

// Initialise - fix the driver's own account and the ledger reserve
func Initialise(self account.Account, reserve account.Account) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("custody")
	globalData.log.Infof("driver account: %s", self)
	globalData.log.Infof("ledger reserve: %s", reserve)

	globalData.self = self
	globalData.reserve = reserve
	globalData.initialised = true

	return nil
}

// Finalise - clear the custody configuration
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.self = account.Account{}
	globalData.reserve = account.Account{}
	globalData.initialised = false

	return nil
}

// Self - the driver's own custody account
func Self() account.Account {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.self
}

// Deposit - pull an amount from the true caller and prepare the
// reserve to draw it
//
// the token's own failure conditions (insufficient balance or
// allowance) are surfaced as-is; the reserve allowance is granted at
// most once per token, on the first funding call that sees it at zero
func Deposit(caller account.Account, tok token.Token, amount uint64) error {
	if 0 == amount {
		return nil
	}

	globalData.RLock()
	self := globalData.self
	reserve := globalData.reserve
	log := globalData.log
	globalData.RUnlock()

	if err := tok.TransferFrom(self, caller, self, amount); nil != err {
		return err
	}

	if 0 == tok.Allowance(self, reserve) {
		log.Infof("granting maximum %s allowance to reserve", tok.Symbol())
		if err := tok.Approve(self, reserve, token.MaxAllowance); nil != err {
			return err
		}
	}
	return nil
}

// Withdraw - forward funds out of the driver's custody
//
// used to pay out collected amounts and realized stream withdrawals;
// the destination receives exactly the given amount
func Withdraw(to account.Account, tok token.Token, amount uint64) error {
	if 0 == amount {
		return nil
	}
	if to.IsZero() {
		return fault.TransferToZeroAccount
	}

	globalData.RLock()
	self := globalData.self
	globalData.RUnlock()

	return tok.Transfer(self, to, amount)
}

// Refund - return a pulled amount to the true caller
//
// compensates an aborted operation whose ledger delegate rejected the
// call after the pull already happened
func Refund(caller account.Account, tok token.Token, amount uint64) {
	if 0 == amount {
		return
	}

	globalData.RLock()
	self := globalData.self
	globalData.RUnlock()

	if err := tok.Transfer(self, caller, amount); nil != err {
		// a failed refund strands funds in custody, log loudly
		fault.Criticalf("refund of %d %s to %s failed: %s", amount, tok.Symbol(), caller, err)
	}
}
