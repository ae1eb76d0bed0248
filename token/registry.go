// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/fault"
)

// globals for the token registry
var globalData struct {
	sync.RWMutex
	log    *logger.L
	tokens map[string]Token

	// set once during initialise
	initialised bool
}

// Initialise - set up the token registry
func Initialise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("token")
	globalData.log.Info("starting…")

	globalData.tokens = make(map[string]Token)
	globalData.initialised = true

	return nil
}

// Finalise - shut down the token registry
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.tokens = nil
	globalData.initialised = false

	return nil
}

// Register - add a token contract to the registry
func Register(t Token) error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	symbol := t.Symbol()
	if _, ok := globalData.tokens[symbol]; ok {
		return fault.ExistsError("token symbol already registered")
	}

	globalData.log.Infof("register token: %s", symbol)
	globalData.tokens[symbol] = t
	return nil
}

// Get - look up a token contract by symbol
func Get(symbol string) (Token, error) {
	globalData.RLock()
	defer globalData.RUnlock()

	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	t, ok := globalData.tokens[symbol]
	if !ok {
		return nil, fault.TokenNotRegistered
	}
	return t, nil
}
