// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - the external streaming-payments ledger
//
// The ledger tracks continuous per-second payment streams, balances
// and proportional splits. The driver only consumes the interface
// below; the streaming and splitting mathematics are the ledger's
// concern. The identity is always the first argument of every call.
package ledger

import (
	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/token"
)

// WeightBase - total weight of a full splits configuration
//
// individual receiver weights are proportions of this value
const WeightBase = 1000000

// StreamReceiver - one receiving identity of a payment stream
//
// the configuration value is opaque to the driver: rate, start and
// duration are packed by the ledger's own convention
type StreamReceiver struct {
	Identity identifier.Identity `json:"identity"`
	Config   uint64              `json:"config"`
}

// SplitsReceiver - one receiving identity of a splits configuration
type SplitsReceiver struct {
	Identity identifier.Identity `json:"identity"`
	Weight   uint32              `json:"weight"`
}

// UserMetadata - an opaque key/value pair recorded for an identity
//
// passed through verbatim, no driver-level interpretation
type UserMetadata struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// Ledger - the interface presented by the ledger collaborator
type Ledger interface {

	// RegisterDriver - one-time driver registration, returns the tag
	// the ledger will associate with this driver's identities
	RegisterDriver(driver account.Account) (identifier.DriverTag, error)

	// UpdateDriverAddress - migrate a registered tag to a new driver address
	UpdateDriverAddress(tag identifier.DriverTag, newDriver account.Account) error

	// Reserve - the ledger-side account that custodies token funds;
	// it pulls deposits from the driver via the driver's allowance
	Reserve() account.Account

	// Collect - pay out the collectable balance of an identity to the
	// calling driver, returns the amount paid
	Collect(identity identifier.Identity, tok token.Token) (uint64, error)

	// Give - transfer an amount from the identity to a receiving
	// identity's splittable balance; the ledger pulls the amount from
	// the driver's custody
	Give(identity identifier.Identity, receiver identifier.Identity, tok token.Token, amount uint64) error

	// SetStreams - reconfigure the identity's outgoing streams and
	// top up or withdraw the streaming balance; the realized delta is
	// authoritative and may differ from the requested one at boundary
	// conditions
	SetStreams(identity identifier.Identity, tok token.Token, currentReceivers []StreamReceiver, balanceDelta int64, newReceivers []StreamReceiver, hint1 uint32, hint2 uint32) (int64, error)

	// SetSplits - replace the identity's splits configuration
	SetSplits(identity identifier.Identity, receivers []SplitsReceiver) error

	// EmitMetadata - record opaque metadata for an identity
	EmitMetadata(identity identifier.Identity, metadata []UserMetadata) error
}
