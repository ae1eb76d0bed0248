// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account - calling accounts for the driver
//
// An account is an ed25519 public key; its Base58 text form carries a
// SHA3 checksum. The all-zero account is "unset" and is never a valid
// caller, owner or approval target.
package account

import (
	"bytes"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/driverd/fault"
)

// AccountLength - byte size of an account
const AccountLength = ed25519.PublicKeySize

// checksum bytes appended to the Base58 form
const checksumLength = 4

// Account - the public key of an external caller
type Account [AccountLength]byte

// FromBytes - convert a binary buffer to an account
func FromBytes(buffer []byte) (Account, error) {
	var account Account
	if AccountLength != len(buffer) {
		return account, fault.InvalidKeyLength
	}
	copy(account[:], buffer)
	return account, nil
}

// FromBase58 - convert a Base58 encoded string to an account
func FromBase58(accountBase58Encoded string) (Account, error) {
	var account Account

	accountDecoded, err := base58.Decode(accountBase58Encoded)
	if nil != err {
		return account, fault.CannotDecodeAccount
	}

	if AccountLength+checksumLength != len(accountDecoded) {
		return account, fault.InvalidKeyLength
	}

	checksumStart := len(accountDecoded) - checksumLength
	checksum := sha3.Sum256(accountDecoded[:checksumStart])
	if !bytes.Equal(checksum[:checksumLength], accountDecoded[checksumStart:]) {
		return account, fault.ChecksumMismatch
	}

	copy(account[:], accountDecoded[:checksumStart])
	return account, nil
}

// Bytes - the account as a byte slice
func (account Account) Bytes() []byte {
	return account[:]
}

// IsZero - detect the unset account
func (account Account) IsZero() bool {
	var zero Account
	return account == zero
}

// CheckSignature - verify an ed25519 signature made by this account
func (account Account) CheckSignature(message []byte, signature Signature) error {
	if ed25519.SignatureSize != len(signature) {
		return fault.InvalidSignature
	}
	if !ed25519.Verify(account[:], message, []byte(signature)) {
		return fault.InvalidSignature
	}
	return nil
}

// String - the Base58 checksummed form
func (account Account) String() string {
	buffer := make([]byte, 0, AccountLength+checksumLength)
	buffer = append(buffer, account[:]...)
	checksum := sha3.Sum256(buffer)
	buffer = append(buffer, checksum[:checksumLength]...)
	return base58.Encode(buffer)
}

// MarshalText - convert an account to text
func (account Account) MarshalText() ([]byte, error) {
	return []byte(account.String()), nil
}

// UnmarshalText - convert text to an account
func (account *Account) UnmarshalText(s []byte) error {
	a, err := FromBase58(string(s))
	if nil != err {
		return err
	}
	*account = a
	return nil
}
