// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package driver - the identity driver facade
//
// This is the single entry point for every mutating operation. Each
// operation resolves the true caller once, performs its access check
// against the credential registry and forwards the ledger interaction
// through the custody account. Operations are fully serialised: one
// mutating call runs at a time, which is what makes the read-allocate-
// store sequences of the underlying packages atomic.
package driver

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/ledger"
	"github.com/bitmark-inc/driverd/storage"
)

// the driver tag lives under a fixed key in the driver state pool so a
// redeploy of the executable keeps the tag the ledger registered
var tagKey = []byte{0x00, 'T', 'A', 'G'}

// globals for this module
var globalData struct {
	sync.RWMutex
	log  *logger.L
	self account.Account
	tag  identifier.DriverTag
	ldgr ledger.Ledger

	// serialises all mutating operations
	opLock sync.Mutex

	// set once during initialise
	initialised bool
}

// Initialise - start up the driver
//
// registers with the ledger on first ever start and persists the
// assigned driver tag; later starts reuse the persisted tag
func Initialise(self account.Account, ldgr ledger.Ledger) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("driver")
	globalData.log.Info("starting…")

	if self.IsZero() {
		return fault.TransferToZeroAccount
	}

	tag, found := storage.Pool.DriverState.GetN(tagKey)
	if found {
		globalData.log.Infof("driver tag from store: %d", tag)
	} else {
		newTag, err := ldgr.RegisterDriver(self)
		if nil != err {
			return err
		}

		trx, err := storage.NewDBTransaction()
		if nil != err {
			return err
		}
		trx.PutN(storage.Pool.DriverState, tagKey, uint64(newTag))
		if err := trx.Commit(); nil != err {
			trx.Abort()
			return err
		}

		tag = uint64(newTag)
		globalData.log.Infof("registered driver tag: %d", tag)
	}

	globalData.self = self
	globalData.tag = identifier.DriverTag(tag)
	globalData.ldgr = ldgr
	globalData.initialised = true

	return nil
}

// Finalise - shut down the driver
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.self = account.Account{}
	globalData.tag = 0
	globalData.ldgr = nil
	globalData.initialised = false

	return nil
}

// Tag - the driver tag assigned by the ledger
func Tag() identifier.DriverTag {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.tag
}

// NextIdentity - the identity the next mint will allocate
//
// pure read; valid until the next mint completes
func NextIdentity() identifier.Identity {
	globalData.RLock()
	defer globalData.RUnlock()
	return identifier.NextIdentity(globalData.tag)
}

// UpdateAddress - move the driver registration to a new custody account
//
// the ledger keeps the same tag, so all allocated identities survive
func UpdateAddress(newSelf account.Account) error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}
	if newSelf.IsZero() {
		return fault.TransferToZeroAccount
	}

	if err := globalData.ldgr.UpdateDriverAddress(globalData.tag, newSelf); nil != err {
		return err
	}

	globalData.log.Infof("driver address updated: %s", newSelf)
	globalData.self = newSelf
	return nil
}
