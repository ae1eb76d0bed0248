// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++       = concatenation of byte data
// 3. identity = big endian uint64 (8 bytes): driver tag in the high
//               32 bits, mint count in the low 32 bits
// 4. count    = successive index value as big endian uint64 (8 bytes)
// 5. owner    = driver account (32 byte public key)
// 6. *others* = byte values of various length
//
// Driver state:
//
//   S ++ 0x00 'M' 'I' 'N' 'T'  - persistent mint counter
//                                data: count
//   S ++ 0x00 'T' 'A' 'G'      - registered driver tag
//                                data: tag as big endian uint64
//   S ++ 'N' ++ owner          - highest RPC nonce seen for an account
//                                data: nonce as big endian uint64
//
// Credentials:
//
//   O ++ identity              - current owner of a credential
//                                data: owner
//   A ++ identity              - account approved for a single credential
//                                data: owner (record absent if no approval)
//   P ++ owner ++ operator     - operator approved for all of an owner's credentials
//                                data: 0x01 (record absent if no approval)
//
// Ownership list (enumeration of credentials per owner):
//
//   C ++ owner                 - next count value to use for appending to owned items
//                                data: count
//   L ++ owner ++ count        - list of owned credentials
//                                data: identity
//   D ++ owner ++ identity     - position in list of owned credentials, for delete after transfer
//                                data: count
//
// Testing:
//
//   Z ++ key                   - testing data
package storage
