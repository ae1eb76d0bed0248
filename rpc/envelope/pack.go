// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package envelope

import (
	"encoding/binary"

	"github.com/bitmark-inc/driverd/account"
)

// Packed - canonical packing of method arguments for signing
//
// fixed width big endian integers and length prefixed byte strings, so
// signer and verifier always produce the same buffer
type Packed []byte

// AppendAccount - append the raw account bytes
func (p Packed) AppendAccount(a account.Account) Packed {
	return append(p, a.Bytes()...)
}

// AppendUint64 - append a 64 bit unsigned value
func (p Packed) AppendUint64(n uint64) Packed {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, n)
	return append(p, buffer...)
}

// AppendInt64 - append a 64 bit signed value
func (p Packed) AppendInt64(n int64) Packed {
	return p.AppendUint64(uint64(n))
}

// AppendUint32 - append a 32 bit unsigned value
func (p Packed) AppendUint32(n uint32) Packed {
	buffer := make([]byte, 4)
	binary.BigEndian.PutUint32(buffer, n)
	return append(p, buffer...)
}

// AppendBytes - append a length prefixed byte string
func (p Packed) AppendBytes(b []byte) Packed {
	p = p.AppendUint64(uint64(len(b)))
	return append(p, b...)
}

// AppendString - append a length prefixed string
func (p Packed) AppendString(s string) Packed {
	return p.AppendBytes([]byte(s))
}
