// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/relay"
)

const testingDirName = "testing"

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

func testAccount(fill byte) account.Account {
	var a account.Account
	for i := 0; i < account.AccountLength; i += 1 {
		a[i] = fill
	}
	return a
}

func TestResolveTrustedRelay(t *testing.T) {
	trusted := testAccount(0x11)
	origin := testAccount(0x22)
	other := testAccount(0x33)

	err := relay.Initialise(trusted)
	if nil != err {
		t.Fatalf("initialise error: %s", err)
	}
	defer relay.Finalise()

	testList := []struct {
		call     relay.Call
		expected account.Account
	}{
		// relayed call resolves to the embedded origin
		{relay.Call{From: trusted, Origin: origin}, origin},
		// relay acting on its own behalf
		{relay.Call{From: trusted}, trusted},
		// a non-trusted invoker cannot impersonate
		{relay.Call{From: other, Origin: origin}, other},
		// plain direct call
		{relay.Direct(other), other},
	}

	for i, item := range testList {
		caller := relay.Resolve(item.call)
		if item.expected != caller {
			t.Errorf("%d: resolved: %v  expected: %v", i, caller, item.expected)
		}
	}
}

func TestResolveRelayDisabled(t *testing.T) {
	origin := testAccount(0x22)
	sender := testAccount(0x33)

	var zero account.Account
	err := relay.Initialise(zero)
	if nil != err {
		t.Fatalf("initialise error: %s", err)
	}
	defer relay.Finalise()

	// with no trusted relay every call resolves to its immediate invoker
	caller := relay.Resolve(relay.Call{From: sender, Origin: origin})
	if sender != caller {
		t.Fatalf("resolved: %v  expected: %v", caller, sender)
	}
}

func TestDoubleInitialise(t *testing.T) {
	trusted := testAccount(0x11)

	err := relay.Initialise(trusted)
	if nil != err {
		t.Fatalf("initialise error: %s", err)
	}
	defer relay.Finalise()

	if err := relay.Initialise(trusted); nil == err {
		t.Fatal("unexpected success of second initialise")
	}
}
