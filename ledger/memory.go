// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sync"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/token"
)

// MemoryLedger - in-memory reference ledger for the local and testing
// chains
//
// implements only the observable behaviour the driver contracts
// require: splittable and collectable balances, split application by
// weight, and stream balance top-up/withdraw with clamping. It is not
// a streaming protocol implementation.
type MemoryLedger struct {
	sync.Mutex
	reserve     account.Account
	nextTag     identifier.DriverTag
	drivers     map[identifier.DriverTag]account.Account
	splittable  map[balanceKey]uint64
	collectable map[balanceKey]uint64
	streams     map[balanceKey]*streamState
	splits      map[identifier.Identity][]SplitsReceiver
	metadata    map[identifier.Identity][]UserMetadata
}

type balanceKey struct {
	identity identifier.Identity
	symbol   string
}

type streamState struct {
	balance   uint64
	receivers []StreamReceiver
}

// NewMemoryLedger - create a ledger custodying funds on the given
// reserve account
func NewMemoryLedger(reserve account.Account) *MemoryLedger {
	return &MemoryLedger{
		reserve:     reserve,
		nextTag:     1,
		drivers:     make(map[identifier.DriverTag]account.Account),
		splittable:  make(map[balanceKey]uint64),
		collectable: make(map[balanceKey]uint64),
		streams:     make(map[balanceKey]*streamState),
		splits:      make(map[identifier.Identity][]SplitsReceiver),
		metadata:    make(map[identifier.Identity][]UserMetadata),
	}
}

// RegisterDriver - one-time driver registration
func (l *MemoryLedger) RegisterDriver(driver account.Account) (identifier.DriverTag, error) {
	if driver.IsZero() {
		return 0, fault.LedgerRejected
	}

	l.Lock()
	defer l.Unlock()

	tag := l.nextTag
	l.nextTag += 1
	l.drivers[tag] = driver
	return tag, nil
}

// UpdateDriverAddress - migrate a registered tag to a new driver address
func (l *MemoryLedger) UpdateDriverAddress(tag identifier.DriverTag, newDriver account.Account) error {
	l.Lock()
	defer l.Unlock()

	if _, ok := l.drivers[tag]; !ok {
		return fault.InvalidDriverTag
	}
	if newDriver.IsZero() {
		return fault.LedgerRejected
	}
	l.drivers[tag] = newDriver
	return nil
}

// Reserve - the funds custody account
func (l *MemoryLedger) Reserve() account.Account {
	return l.reserve
}

// Collect - pay out the collectable balance of an identity to the driver
func (l *MemoryLedger) Collect(identity identifier.Identity, tok token.Token) (uint64, error) {
	l.Lock()
	defer l.Unlock()

	driver, ok := l.drivers[identity.Tag()]
	if !ok {
		return 0, fault.InvalidDriverTag
	}

	key := balanceKey{identity: identity, symbol: tok.Symbol()}
	amount := l.collectable[key]
	if 0 == amount {
		return 0, nil
	}

	if err := tok.Transfer(l.reserve, driver, amount); nil != err {
		return 0, err
	}
	delete(l.collectable, key)
	return amount, nil
}

// Give - move an amount into a receiving identity's splittable balance
//
// the amount is pulled from the driver's custody via the allowance the
// driver granted to the reserve
func (l *MemoryLedger) Give(identity identifier.Identity, receiver identifier.Identity, tok token.Token, amount uint64) error {
	l.Lock()
	defer l.Unlock()

	driver, ok := l.drivers[identity.Tag()]
	if !ok {
		return fault.InvalidDriverTag
	}

	if 0 == amount {
		return nil
	}

	if err := tok.TransferFrom(l.reserve, driver, l.reserve, amount); nil != err {
		return err
	}

	l.splittable[balanceKey{identity: receiver, symbol: tok.Symbol()}] += amount
	return nil
}

// SetStreams - reconfigure streams and adjust the streaming balance
//
// a positive delta is pulled in full from the driver's custody; a
// negative delta is clamped to the available balance and the withdrawn
// amount is returned to the driver. The realized delta is authoritative.
func (l *MemoryLedger) SetStreams(identity identifier.Identity, tok token.Token, currentReceivers []StreamReceiver, balanceDelta int64, newReceivers []StreamReceiver, hint1 uint32, hint2 uint32) (int64, error) {
	l.Lock()
	defer l.Unlock()

	driver, ok := l.drivers[identity.Tag()]
	if !ok {
		return 0, fault.InvalidDriverTag
	}

	key := balanceKey{identity: identity, symbol: tok.Symbol()}
	state, ok := l.streams[key]
	if !ok {
		state = &streamState{}
		l.streams[key] = state
	}

	realized := int64(0)
	switch {
	case balanceDelta > 0:
		if err := tok.TransferFrom(l.reserve, driver, l.reserve, uint64(balanceDelta)); nil != err {
			return 0, err
		}
		state.balance += uint64(balanceDelta)
		realized = balanceDelta

	case balanceDelta < 0:
		withdraw := uint64(-balanceDelta)
		if withdraw > state.balance {
			withdraw = state.balance
		}
		if withdraw > 0 {
			if err := tok.Transfer(l.reserve, driver, withdraw); nil != err {
				return 0, err
			}
			state.balance -= withdraw
		}
		realized = -int64(withdraw)
	}

	state.receivers = newReceivers
	return realized, nil
}

// SetSplits - replace the identity's splits configuration
//
// receivers must be ordered by identity, free of duplicates, carry
// non-zero weights and sum to no more than the weight base
func (l *MemoryLedger) SetSplits(identity identifier.Identity, receivers []SplitsReceiver) error {
	totalWeight := uint64(0)
	for i, r := range receivers {
		if 0 == r.Weight {
			return fault.InvalidReceiverList
		}
		if i > 0 && receivers[i-1].Identity >= r.Identity {
			return fault.InvalidReceiverList
		}
		totalWeight += uint64(r.Weight)
	}
	if totalWeight > WeightBase {
		return fault.InvalidReceiverList
	}

	l.Lock()
	l.splits[identity] = append([]SplitsReceiver(nil), receivers...)
	l.Unlock()
	return nil
}

// EmitMetadata - record opaque metadata for an identity
func (l *MemoryLedger) EmitMetadata(identity identifier.Identity, metadata []UserMetadata) error {
	l.Lock()
	l.metadata[identity] = append(l.metadata[identity], metadata...)
	l.Unlock()
	return nil
}

// Split - apply the identity's splits configuration to its splittable
// balance; split shares land on the receivers' splittable balances and
// the remainder becomes collectable
func (l *MemoryLedger) Split(identity identifier.Identity, tok token.Token) {
	l.Lock()
	defer l.Unlock()

	key := balanceKey{identity: identity, symbol: tok.Symbol()}
	amount := l.splittable[key]
	if 0 == amount {
		return
	}
	delete(l.splittable, key)

	remaining := amount
	for _, r := range l.splits[identity] {
		share := amount * uint64(r.Weight) / WeightBase
		l.splittable[balanceKey{identity: r.Identity, symbol: tok.Symbol()}] += share
		remaining -= share
	}
	l.collectable[key] += remaining
}

// Splittable - current splittable balance of an identity
func (l *MemoryLedger) Splittable(identity identifier.Identity, tok token.Token) uint64 {
	l.Lock()
	defer l.Unlock()
	return l.splittable[balanceKey{identity: identity, symbol: tok.Symbol()}]
}

// Collectable - current collectable balance of an identity
func (l *MemoryLedger) Collectable(identity identifier.Identity, tok token.Token) uint64 {
	l.Lock()
	defer l.Unlock()
	return l.collectable[balanceKey{identity: identity, symbol: tok.Symbol()}]
}

// StreamBalance - current streaming balance of an identity
func (l *MemoryLedger) StreamBalance(identity identifier.Identity, tok token.Token) uint64 {
	l.Lock()
	defer l.Unlock()

	state, ok := l.streams[balanceKey{identity: identity, symbol: tok.Symbol()}]
	if !ok {
		return 0
	}
	return state.balance
}

// Metadata - all metadata recorded for an identity
func (l *MemoryLedger) Metadata(identity identifier.Identity) []UserMetadata {
	l.Lock()
	defer l.Unlock()
	return append([]UserMetadata(nil), l.metadata[identity]...)
}
