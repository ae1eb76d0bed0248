// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identifier_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/storage"
)

const (
	databaseFileName = "test-identifier.leveldb"
	testingDirName   = "testing"
)

func TestMain(m *testing.M) {
	_ = os.Mkdir(testingDirName, 0700)
	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	rc := m.Run()
	os.RemoveAll(testingDirName)
	os.Exit(rc)
}

func setup(t *testing.T) {
	os.RemoveAll(databaseFileName)
	err := storage.Initialise(databaseFileName)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	storage.Finalise()
	os.RemoveAll(databaseFileName)
}

// allocate through a committed transaction
func allocate(t *testing.T, tag identifier.DriverTag) identifier.Identity {
	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}
	identity := identifier.Allocate(trx, tag)
	if err := trx.Commit(); nil != err {
		t.Fatalf("commit error: %s", err)
	}
	return identity
}

// identities must be strictly increasing and predicted by NextIdentity
func TestAllocationMonotonic(t *testing.T) {
	setup(t)
	defer teardown(t)

	const tag = identifier.DriverTag(7)

	previous := identifier.Identity(0)
	for i := 0; i < 100; i += 1 {
		predicted := identifier.NextIdentity(tag)
		identity := allocate(t, tag)

		if predicted != identity {
			t.Fatalf("prediction mismatch: actual: %v  expected: %v", identity, predicted)
		}
		if i > 0 && identity <= previous {
			t.Fatalf("identity not increasing: %v after %v", identity, previous)
		}
		if uint64(i) != identity.Count() {
			t.Fatalf("count mismatch: actual: %d  expected: %d", identity.Count(), i)
		}
		if tag != identity.Tag() {
			t.Fatalf("tag mismatch: actual: %d  expected: %d", identity.Tag(), tag)
		}
		previous = identity
	}
}

// identities of different tags occupy disjoint numeric ranges
func TestTagIsolation(t *testing.T) {
	a := identifier.New(1, 0xffffffff)
	b := identifier.New(2, 0)
	if a >= b {
		t.Fatalf("tag ranges overlap: %v >= %v", a, b)
	}

	for _, count := range []uint64{0, 1, 0xffffffff} {
		x := identifier.New(3, count)
		y := identifier.New(4, count)
		if x == y {
			t.Fatalf("collision across tags at count: %d", count)
		}
	}
}

// the counter survives a storage restart
func TestCounterPersistence(t *testing.T) {
	setup(t)

	const tag = identifier.DriverTag(9)

	allocate(t, tag)
	allocate(t, tag)

	storage.Finalise()
	err := storage.Initialise(databaseFileName)
	if nil != err {
		t.Fatalf("storage re-initialise error: %s", err)
	}
	defer teardown(t)

	identity := allocate(t, tag)
	if 2 != identity.Count() {
		t.Fatalf("count after restart: actual: %d  expected: 2", identity.Count())
	}
}

// aborting the surrounding transaction must not advance the counter
func TestAllocationAbort(t *testing.T) {
	setup(t)
	defer teardown(t)

	const tag = identifier.DriverTag(5)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}
	identifier.Allocate(trx, tag)
	trx.Abort()

	identity := allocate(t, tag)
	if 0 != identity.Count() {
		t.Fatalf("count after abort: actual: %d  expected: 0", identity.Count())
	}
}

// text round trip
func TestMarshalText(t *testing.T) {
	identity := identifier.New(2, 5)

	text, err := identity.MarshalText()
	if nil != err {
		t.Fatalf("marshal error: %s", err)
	}

	var decoded identifier.Identity
	if err := decoded.UnmarshalText(text); nil != err {
		t.Fatalf("unmarshal error: %s", err)
	}
	if decoded != identity {
		t.Fatalf("round trip mismatch: actual: %v  expected: %v", decoded, identity)
	}
}
