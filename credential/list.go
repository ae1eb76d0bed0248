// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package credential

import (
	"encoding/binary"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/storage"
)

// ListCredentialsFor - enumerate credentials owned by an account
//
// start is the list position to begin from, count limits the result;
// transferred-away credentials leave gaps in the list positions which
// are skipped. The returned next value is the position to resume from,
// zero when the list is exhausted.
func ListCredentialsFor(owner account.Account, start uint64, count int) ([]identifier.Identity, uint64, error) {
	if count <= 0 {
		return nil, 0, fault.InvalidCount
	}

	nextCount, _ := storage.Pool.OwnerCount.GetN(owner.Bytes())

	results := make([]identifier.Identity, 0, count)
	countKey := make([]byte, 8)

	n := start
	for ; n < nextCount && len(results) < count; n += 1 {
		binary.BigEndian.PutUint64(countKey, n)
		value := storage.Pool.OwnerList.Get(append(owner.Bytes(), countKey...))
		if nil == value {
			continue // gap left by a transfer
		}
		results = append(results, identifier.Identity(binary.BigEndian.Uint64(value)))
	}

	next := n
	if n >= nextCount {
		next = 0
	}
	return results, next, nil
}
