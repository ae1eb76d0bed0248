// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// error base
type GenericError string

// to allow for different classes of errors
type AuthorizationError GenericError
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type TransferError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised        = ProcessError("already initialised")
	CannotDecodeAccount       = InvalidError("cannot decode account")
	ChecksumMismatch          = InvalidError("checksum mismatch")
	IdentityAlreadyExists     = ExistsError("identity already exists")
	IdentityDoesNotExist      = NotFoundError("identity does not exist")
	InsufficientAllowance     = TransferError("insufficient token allowance")
	InsufficientBalance       = TransferError("insufficient token balance")
	InvalidChain              = InvalidError("invalid chain")
	InvalidCount              = InvalidError("invalid count")
	InvalidDriverTag          = InvalidError("invalid driver tag")
	InvalidIpAddress          = InvalidError("invalid ip Address")
	InvalidKeyLength          = InvalidError("invalid key length")
	InvalidReceiverList       = InvalidError("invalid receiver list")
	InvalidSignature          = InvalidError("invalid signature")
	LedgerRejected            = ProcessError("ledger rejected the operation")
	MintToZeroAccount         = InvalidError("mint to zero account")
	MissingParameters         = InvalidError("missing parameters")
	NotAvailableDuringStartup = ProcessError("not available during startup")
	NotInitialised            = ProcessError("not initialised")
	RateLimiting              = ProcessError("rate limiting")
	StaleNonce                = InvalidError("stale nonce")
	TokenNotRegistered        = NotFoundError("token is not registered")
	TransactionInUse          = ProcessError("transaction already in use")
	TransferFailed            = TransferError("token transfer failed")
	TransferToZeroAccount     = InvalidError("transfer to zero account")
	Unauthorized              = AuthorizationError("caller is not owner or approved")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e AuthorizationError) Error() string { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e InvalidError) Error() string       { return string(e) }
func (e NotFoundError) Error() string      { return string(e) }
func (e ProcessError) Error() string       { return string(e) }
func (e TransferError) Error() string      { return string(e) }

// determine the class of an error
func IsErrAuthorization(e error) bool { _, ok := e.(AuthorizationError); return ok }
func IsErrExists(e error) bool        { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool       { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool      { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool       { _, ok := e.(ProcessError); return ok }
func IsErrTransfer(e error) bool      { _, ok := e.(TransferError); return ok }
