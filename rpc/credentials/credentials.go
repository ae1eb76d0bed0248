// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package credentials - client RPCs for credential management
package credentials

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/credential"
	"github.com/bitmark-inc/driverd/driver"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/mode"
	"github.com/bitmark-inc/driverd/rpc/envelope"
	"github.com/bitmark-inc/driverd/rpc/ratelimit"
)

// Credentials - type for the RPC
type Credentials struct {
	Log          *logger.L
	Limiter      *rate.Limiter
	IsNormalMode func(mode.Mode) bool
}

const (
	rateLimitCredentials = 200
	rateBurstCredentials = 100

	// MaximumListCount - upper bound on one list page
	MaximumListCount = 100
)

func New(log *logger.L, isNormalMode func(mode.Mode) bool) *Credentials {
	return &Credentials{
		Log:          log,
		Limiter:      rate.NewLimiter(rateLimitCredentials, rateBurstCredentials),
		IsNormalMode: isNormalMode,
	}
}

// Approve
// -------

// ApproveArguments - arguments for RPC
type ApproveArguments struct {
	envelope.Envelope
	Identity identifier.Identity `json:"identity"`
	Approved account.Account     `json:"approved,omitempty"`
}

// ApproveReply - result of the approve RPC
type ApproveReply struct {
	Approved account.Account `json:"approved"`
}

// Approve - approve one account for a single credential
//
// a zero approved account clears the approval
func (c *Credentials) Approve(arguments *ApproveArguments, reply *ApproveReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}
	if !c.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	c.Log.Infof("Credentials.Approve: %+v", arguments)

	payload := envelope.Packed{}.
		AppendUint64(uint64(arguments.Identity)).
		AppendAccount(arguments.Approved)

	call, err := envelope.Verify("Credentials.Approve", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.Approve(call, arguments.Identity, arguments.Approved); nil != err {
		return err
	}
	reply.Approved = arguments.Approved
	return nil
}

// SetApprovalForAll
// -----------------

// SetApprovalForAllArguments - arguments for RPC
type SetApprovalForAllArguments struct {
	envelope.Envelope
	Operator account.Account `json:"operator"`
	Approved bool            `json:"approved"`
}

// SetApprovalForAllReply - result of the operator approval RPC
type SetApprovalForAllReply struct {
	Approved bool `json:"approved"`
}

// SetApprovalForAll - approve or revoke an operator for all of the
// sending account's credentials
func (c *Credentials) SetApprovalForAll(arguments *SetApprovalForAllArguments, reply *SetApprovalForAllReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}
	if !c.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	c.Log.Infof("Credentials.SetApprovalForAll: %+v", arguments)

	approvedByte := byte(0x00)
	if arguments.Approved {
		approvedByte = 0x01
	}
	payload := envelope.Packed{}.
		AppendAccount(arguments.Operator).
		AppendBytes([]byte{approvedByte})

	call, err := envelope.Verify("Credentials.SetApprovalForAll", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.SetApprovalForAll(call, arguments.Operator, arguments.Approved); nil != err {
		return err
	}
	reply.Approved = arguments.Approved
	return nil
}

// Transfer
// --------

// TransferArguments - arguments for RPC
type TransferArguments struct {
	envelope.Envelope
	Identity identifier.Identity `json:"identity"`
	NewOwner account.Account     `json:"newOwner"`
}

// TransferReply - result of the transfer RPC
type TransferReply struct {
	NewOwner account.Account `json:"newOwner"`
}

// Transfer - transfer a credential to a new owner
func (c *Credentials) Transfer(arguments *TransferArguments, reply *TransferReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}
	if !c.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	c.Log.Infof("Credentials.Transfer: %+v", arguments)

	payload := envelope.Packed{}.
		AppendUint64(uint64(arguments.Identity)).
		AppendAccount(arguments.NewOwner)

	call, err := envelope.Verify("Credentials.Transfer", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.TransferCredential(call, arguments.Identity, arguments.NewOwner); nil != err {
		return err
	}
	reply.NewOwner = arguments.NewOwner
	return nil
}

// Burn
// ----

// BurnArguments - arguments for RPC
type BurnArguments struct {
	envelope.Envelope
	Identity identifier.Identity `json:"identity"`
}

// BurnReply - result of the burn RPC
type BurnReply struct {
	Identity identifier.Identity `json:"identity"`
}

// Burn - destroy a credential; its identity is never reused
func (c *Credentials) Burn(arguments *BurnArguments, reply *BurnReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}
	if !c.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	c.Log.Infof("Credentials.Burn: %+v", arguments)

	payload := envelope.Packed{}.AppendUint64(uint64(arguments.Identity))

	call, err := envelope.Verify("Credentials.Burn", arguments.Envelope, payload)
	if nil != err {
		return err
	}

	if err := driver.Burn(call, arguments.Identity); nil != err {
		return err
	}
	reply.Identity = arguments.Identity
	return nil
}

// Owner
// -----

// OwnerArguments - arguments for RPC
type OwnerArguments struct {
	Identity identifier.Identity `json:"identity"`
}

// OwnerReply - result of the owner RPC
type OwnerReply struct {
	Owner    account.Account `json:"owner"`
	Approved account.Account `json:"approved,omitempty"`
}

// Owner - current owner and single approval of a credential
func (c *Credentials) Owner(arguments *OwnerArguments, reply *OwnerReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}
	if !c.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	owner, err := credential.OwnerOf(nil, arguments.Identity)
	if nil != err {
		return err
	}
	reply.Owner = owner
	reply.Approved = credential.ApprovedFor(arguments.Identity)
	return nil
}

// List
// ----

// ListArguments - arguments for RPC
type ListArguments struct {
	Owner account.Account `json:"owner"`
	Start uint64          `json:"start,string"`
	Count int             `json:"count"`
}

// ListReply - result of the list RPC
type ListReply struct {
	Identities []identifier.Identity `json:"identities"`
	Next       uint64                `json:"next,string"`
}

// List - page through the credentials owned by an account
func (c *Credentials) List(arguments *ListArguments, reply *ListReply) error {
	if err := ratelimit.LimitN(c.Limiter, arguments.Count, MaximumListCount); nil != err {
		return err
	}
	if !c.IsNormalMode(mode.Normal) {
		return fault.NotAvailableDuringStartup
	}

	identities, next, err := credential.ListCredentialsFor(arguments.Owner, arguments.Start, arguments.Count)
	if nil != err {
		return err
	}
	reply.Identities = identities
	reply.Next = next
	return nil
}
