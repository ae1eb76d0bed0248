// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package driver - client RPCs for the funds operations
package driver

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/driver"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/ledger"
	"github.com/bitmark-inc/driverd/mode"
	"github.com/bitmark-inc/driverd/rpc/envelope"
	"github.com/bitmark-inc/driverd/rpc/ratelimit"
)

// Driver - type for the RPC
type Driver struct {
	Log          *logger.L
	Limiter      *rate.Limiter
	IsNormalMode func(mode.Mode) bool
}

const (
	rateLimitDriver = 200
	rateBurstDriver = 100

	// MaximumReceiverCount - cap on receiver lists in one call
	MaximumReceiverCount = 100

	// MaximumMetadataCount - cap on metadata entries in one call
	MaximumMetadataCount = 50
)

func New(log *logger.L, isNormalMode func(mode.Mode) bool) *Driver {
	return &Driver{
		Log:          log,
		Limiter:      rate.NewLimiter(rateLimitDriver, rateBurstDriver),
		IsNormalMode: isNormalMode,
	}
}

// Mint
// ----

// MintArguments - arguments for RPC
type MintArguments struct {
	envelope.Envelope
	To       account.Account       `json:"to"`
	Metadata []ledger.UserMetadata `json:"metadata,omitempty"`
}

// MintReply - result of the mint RPC
type MintReply struct {
	Identity identifier.Identity `json:"identity"`
}

func packMetadata(p envelope.Packed, metadata []ledger.UserMetadata) envelope.Packed {
	p = p.AppendUint64(uint64(len(metadata)))
	for _, m := range metadata {
		p = p.AppendString(m.Key)
		p = p.AppendBytes(m.Value)
	}
	return p
}

// Mint - allocate a fresh identity for the named receiver
func (d *Driver) Mint(arguments *MintArguments, reply *MintReply) error {
	if err := ratelimit.Limit(d.Limiter); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}
	if len(arguments.Metadata) > MaximumMetadataCount {
		return fault.InvalidCount
	}

	d.Log.Infof("Driver.Mint: %+v", arguments)

	payload := envelope.Packed{}.AppendAccount(arguments.To)
	payload = packMetadata(payload, arguments.Metadata)

	call, err := envelope.Verify("Driver.Mint", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	identity, err := driver.Mint(call, arguments.To, arguments.Metadata)
	if nil != err {
		return err
	}
	reply.Identity = identity
	return nil
}

// Collect
// -------

// CollectArguments - arguments for RPC
type CollectArguments struct {
	envelope.Envelope
	Identity   identifier.Identity `json:"identity"`
	Symbol     string              `json:"symbol"`
	TransferTo account.Account     `json:"transferTo"`
}

// CollectReply - result of the collect RPC
type CollectReply struct {
	Amount uint64 `json:"amount,string"`
}

// Collect - receive an identity's collectable funds
func (d *Driver) Collect(arguments *CollectArguments, reply *CollectReply) error {
	if err := ratelimit.Limit(d.Limiter); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	d.Log.Infof("Driver.Collect: %+v", arguments)

	payload := envelope.Packed{}.
		AppendUint64(uint64(arguments.Identity)).
		AppendString(arguments.Symbol).
		AppendAccount(arguments.TransferTo)

	call, err := envelope.Verify("Driver.Collect", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	amount, err := driver.Collect(call, arguments.Identity, arguments.Symbol, arguments.TransferTo)
	if nil != err {
		return err
	}
	reply.Amount = amount
	return nil
}

// Give
// ----

// GiveArguments - arguments for RPC
type GiveArguments struct {
	envelope.Envelope
	Identity identifier.Identity `json:"identity"`
	Receiver identifier.Identity `json:"receiver"`
	Symbol   string              `json:"symbol"`
	Amount   uint64              `json:"amount,string"`
}

// GiveReply - result of the give RPC
type GiveReply struct {
	Given uint64 `json:"given,string"`
}

// Give - donate funds from the sending account to a receiver identity
func (d *Driver) Give(arguments *GiveArguments, reply *GiveReply) error {
	if err := ratelimit.Limit(d.Limiter); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	d.Log.Infof("Driver.Give: %+v", arguments)

	payload := envelope.Packed{}.
		AppendUint64(uint64(arguments.Identity)).
		AppendUint64(uint64(arguments.Receiver)).
		AppendString(arguments.Symbol).
		AppendUint64(arguments.Amount)

	call, err := envelope.Verify("Driver.Give", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.Give(call, arguments.Identity, arguments.Receiver, arguments.Symbol, arguments.Amount); nil != err {
		return err
	}
	reply.Given = arguments.Amount
	return nil
}

// SetStreams
// ----------

// SetStreamsArguments - arguments for RPC
type SetStreamsArguments struct {
	envelope.Envelope
	Identity         identifier.Identity     `json:"identity"`
	Symbol           string                  `json:"symbol"`
	CurrentReceivers []ledger.StreamReceiver `json:"currentReceivers,omitempty"`
	BalanceDelta     int64                   `json:"balanceDelta,string"`
	NewReceivers     []ledger.StreamReceiver `json:"newReceivers,omitempty"`
	TransferTo       account.Account         `json:"transferTo,omitempty"`
}

// SetStreamsReply - result of the set streams RPC
type SetStreamsReply struct {
	Realized int64 `json:"realized,string"`
}

func packStreamReceivers(p envelope.Packed, receivers []ledger.StreamReceiver) envelope.Packed {
	p = p.AppendUint64(uint64(len(receivers)))
	for _, r := range receivers {
		p = p.AppendUint64(uint64(r.Identity))
		p = p.AppendUint64(r.Config)
	}
	return p
}

// SetStreams - reconfigure an identity's streams and adjust its balance
func (d *Driver) SetStreams(arguments *SetStreamsArguments, reply *SetStreamsReply) error {
	if err := ratelimit.Limit(d.Limiter); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}
	if len(arguments.CurrentReceivers) > MaximumReceiverCount ||
		len(arguments.NewReceivers) > MaximumReceiverCount {
		return fault.InvalidCount
	}

	d.Log.Infof("Driver.SetStreams: %+v", arguments)

	payload := envelope.Packed{}.
		AppendUint64(uint64(arguments.Identity)).
		AppendString(arguments.Symbol)
	payload = packStreamReceivers(payload, arguments.CurrentReceivers)
	payload = payload.AppendInt64(arguments.BalanceDelta)
	payload = packStreamReceivers(payload, arguments.NewReceivers)
	payload = payload.AppendAccount(arguments.TransferTo)

	call, err := envelope.Verify("Driver.SetStreams", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	realized, err := driver.SetStreams(call, arguments.Identity, arguments.Symbol, arguments.CurrentReceivers, arguments.BalanceDelta, arguments.NewReceivers, arguments.TransferTo)
	if nil != err {
		return err
	}
	reply.Realized = realized
	return nil
}

// SetSplits
// ---------

// SetSplitsArguments - arguments for RPC
type SetSplitsArguments struct {
	envelope.Envelope
	Identity  identifier.Identity     `json:"identity"`
	Receivers []ledger.SplitsReceiver `json:"receivers,omitempty"`
}

// SetSplitsReply - result of the set splits RPC
type SetSplitsReply struct {
	Receivers int `json:"receivers"`
}

// SetSplits - replace an identity's splits configuration
func (d *Driver) SetSplits(arguments *SetSplitsArguments, reply *SetSplitsReply) error {
	if err := ratelimit.Limit(d.Limiter); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}
	if len(arguments.Receivers) > MaximumReceiverCount {
		return fault.InvalidCount
	}

	d.Log.Infof("Driver.SetSplits: %+v", arguments)

	payload := envelope.Packed{}.AppendUint64(uint64(arguments.Identity))
	payload = payload.AppendUint64(uint64(len(arguments.Receivers)))
	for _, r := range arguments.Receivers {
		payload = payload.AppendUint64(uint64(r.Identity))
		payload = payload.AppendUint32(r.Weight)
	}

	call, err := envelope.Verify("Driver.SetSplits", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.SetSplits(call, arguments.Identity, arguments.Receivers); nil != err {
		return err
	}
	reply.Receivers = len(arguments.Receivers)
	return nil
}

// EmitMetadata
// ------------

// EmitMetadataArguments - arguments for RPC
type EmitMetadataArguments struct {
	envelope.Envelope
	Identity identifier.Identity   `json:"identity"`
	Metadata []ledger.UserMetadata `json:"metadata"`
}

// EmitMetadataReply - result of the emit metadata RPC
type EmitMetadataReply struct {
	Entries int `json:"entries"`
}

// EmitMetadata - announce metadata for an identity
func (d *Driver) EmitMetadata(arguments *EmitMetadataArguments, reply *EmitMetadataReply) error {
	if err := ratelimit.LimitN(d.Limiter, len(arguments.Metadata), MaximumMetadataCount); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	d.Log.Infof("Driver.EmitMetadata: %+v", arguments)

	payload := envelope.Packed{}.AppendUint64(uint64(arguments.Identity))
	payload = packMetadata(payload, arguments.Metadata)

	call, err := envelope.Verify("Driver.EmitMetadata", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.EmitMetadata(call, arguments.Identity, arguments.Metadata); nil != err {
		return err
	}
	reply.Entries = len(arguments.Metadata)
	return nil
}

// NextIdentity
// ------------

// NextIdentityArguments - arguments for RPC
type NextIdentityArguments struct {
}

// NextIdentityReply - result of the next identity RPC
type NextIdentityReply struct {
	Identity identifier.Identity  `json:"identity"`
	Tag      identifier.DriverTag `json:"tag"`
}

// NextIdentity - the identity the next mint will allocate
//
// read only; valid until the next mint completes
func (d *Driver) NextIdentity(_ *NextIdentityArguments, reply *NextIdentityReply) error {
	if err := ratelimit.Limit(d.Limiter); nil != err {
		return err
	}
	if !d.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	reply.Identity = driver.NextIdentity()
	reply.Tag = driver.Tag()
	return nil
}
