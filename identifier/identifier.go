// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identifier - allocation of ledger identities
//
// An identity is a 64 bit unsigned integer: the driver tag registered
// with the ledger occupies the high 32 bits and the persistent mint
// counter the low 32 bits. Identities allocated by one driver tag are
// strictly increasing and can never collide with those of another tag.
package identifier

import (
	"strconv"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/storage"
)

// DriverTag - small integer identifying this driver instance to the ledger
type DriverTag uint32

// Identity - numeric account key inside the ledger
type Identity uint64

// TagShift - bit position of the driver tag inside an identity
const TagShift = 32

// the mint counter lives under a fixed key in the driver state pool so
// that a redeploy of the executable never resets or collides allocation
var mintCounterKey = []byte{0x00, 'M', 'I', 'N', 'T'}

// New - combine a driver tag and a counter value into an identity
func New(tag DriverTag, count uint64) Identity {
	if count > 0xffffffff {
		logger.Panicf("identifier: mint counter overflow: %d", count)
	}
	return Identity(uint64(tag)<<TagShift | count)
}

// Tag - the driver tag that allocated this identity
func (identity Identity) Tag() DriverTag {
	return DriverTag(identity >> TagShift)
}

// Count - the mint counter value at allocation time
func (identity Identity) Count() uint64 {
	return uint64(identity) & 0xffffffff
}

// NextIdentity - the identity a subsequent allocation will return
//
// pure read, no side effect
func NextIdentity(tag DriverTag) Identity {
	count, _ := storage.Pool.DriverState.GetN(mintCounterKey)
	return New(tag, count)
}

// Allocate - allocate the next identity
//
// reads the current counter, stores counter+1 through the supplied
// transaction and returns the pre-increment identity; atomicity is
// guaranteed by the fully serialised call execution
func Allocate(trx storage.Transaction, tag DriverTag) Identity {
	count, _ := trx.GetN(storage.Pool.DriverState, mintCounterKey)
	trx.PutN(storage.Pool.DriverState, mintCounterKey, count+1)
	return New(tag, count)
}

// String - identity as a decimal string
func (identity Identity) String() string {
	return strconv.FormatUint(uint64(identity), 10)
}

// MarshalText - convert identity to text
func (identity Identity) MarshalText() ([]byte, error) {
	return []byte(identity.String()), nil
}

// UnmarshalText - convert text to an identity
func (identity *Identity) UnmarshalText(s []byte) error {
	n, err := strconv.ParseUint(string(s), 10, 64)
	if nil != err {
		return err
	}
	*identity = Identity(n)
	return nil
}
