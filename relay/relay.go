// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package relay - resolution of the true acting caller
//
// A trusted meta-transaction relay submits calls on behalf of other
// accounts and appends the original caller to the call envelope. The
// appended origin is honoured only when the immediate invoker is the
// trusted relay itself; for every other invoker the immediate invoker
// is the true caller, so no account can impersonate another.
package relay

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
)

// Call - the caller envelope of one driver operation
//
// From is the verified immediate invoker; Origin is the trailing
// true-caller segment a relay appends, zero when absent
type Call struct {
	From   account.Account
	Origin account.Account
}

// Direct - envelope for an unrelayed call
func Direct(from account.Account) Call {
	return Call{From: from}
}

// globals for the relay configuration
var globalData struct {
	sync.RWMutex
	log     *logger.L
	trusted account.Account

	// set once during initialise
	initialised bool
}

// Initialise - fix the trusted relay account
//
// a zero account disables relaying entirely
func Initialise(trusted account.Account) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("relay")
	if trusted.IsZero() {
		globalData.log.Info("relaying disabled")
	} else {
		globalData.log.Infof("trusted relay: %s", trusted)
	}

	globalData.trusted = trusted
	globalData.initialised = true

	return nil
}

// Finalise - clear the relay configuration
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.trusted = account.Account{}
	globalData.initialised = false

	return nil
}

// Resolve - the true caller of a call
//
// must be used everywhere a caller identity is needed: both the
// access checks and the custody pulls evaluate the same resolved
// account
func Resolve(call Call) account.Account {
	globalData.RLock()
	trusted := globalData.trusted
	globalData.RUnlock()

	if !trusted.IsZero() && call.From == trusted && !call.Origin.IsZero() {
		return call.Origin
	}
	return call.From
}
