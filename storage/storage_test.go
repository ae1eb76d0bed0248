// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"bytes"
	"testing"

	"github.com/bitmark-inc/driverd/storage"
)

// test of the put/get/delete cycle on a pool
func TestPoolPutGetDelete(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	key := []byte("key-one")
	data := []byte("data-one")

	if p.Has(key) {
		t.Fatal("unexpected key before put")
	}

	p.Put(key, data)

	if !p.Has(key) {
		t.Fatal("missing key after put")
	}

	value := p.Get(key)
	if !bytes.Equal(data, value) {
		t.Fatalf("value mismatch: actual: %q  expected: %q", value, data)
	}

	p.Delete(key)

	if p.Has(key) {
		t.Fatal("unexpected key after delete")
	}
	if nil != p.Get(key) {
		t.Fatal("unexpected value after delete")
	}
}

// test of 8 byte big endian records
func TestPoolPutNGetN(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	key := []byte("counter")

	if _, found := p.GetN(key); found {
		t.Fatal("unexpected record before put")
	}

	p.PutN(key, 0x123456789abcdef0)

	n, found := p.GetN(key)
	if !found {
		t.Fatal("missing record after put")
	}
	if 0x123456789abcdef0 != n {
		t.Fatalf("value mismatch: actual: %x  expected: %x", n, uint64(0x123456789abcdef0))
	}
}

// check that pools are isolated by prefix
func TestPoolIsolation(t *testing.T) {
	setup(t)
	defer teardown(t)

	key := []byte("shared-key")

	storage.Pool.TestData.Put(key, []byte("test-data"))

	if storage.Pool.DriverState.Has(key) {
		t.Fatal("key leaked into another pool")
	}
}

// a second initialise must be refused
func TestDoubleInitialise(t *testing.T) {
	setup(t)
	defer teardown(t)

	err := storage.Initialise(databaseFileName)
	if nil == err {
		t.Fatal("unexpected success of second initialise")
	}
}
