// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package envelope_test

import (
	"crypto/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/rpc/envelope"
	"github.com/bitmark-inc/driverd/storage"
)

const (
	databaseFileName = "test-envelope.leveldb"
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

func makeKey(t *testing.T) (ed25519.PrivateKey, account.Account) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	from, err := account.FromBytes(publicKey)
	if nil != err {
		t.Fatalf("account error: %s", err)
	}
	return privateKey, from
}

func TestSignAndVerify(t *testing.T) {
	setup(t)
	defer teardown(t)

	privateKey, from := makeKey(t)
	payload := envelope.Packed{}.AppendUint64(42).AppendString("TST")

	env, err := envelope.Sign("Driver.Give", privateKey, account.Account{}, 1, payload)
	assert.NoError(t, err, "sign")
	assert.Equal(t, from, env.From, "from account")

	call, err := envelope.Verify("Driver.Give", env, payload)
	assert.NoError(t, err, "verify")
	assert.Equal(t, from, call.From, "caller")
	assert.True(t, call.Origin.IsZero(), "no origin")
}

func TestVerifyTamperedPayload(t *testing.T) {
	setup(t)
	defer teardown(t)

	privateKey, _ := makeKey(t)
	payload := envelope.Packed{}.AppendUint64(42)

	env, err := envelope.Sign("Driver.Give", privateKey, account.Account{}, 1, payload)
	assert.NoError(t, err, "sign")

	// altered amount
	tampered := envelope.Packed{}.AppendUint64(43)
	_, err = envelope.Verify("Driver.Give", env, tampered)
	assert.Equal(t, fault.InvalidSignature, err, "tampered payload")

	// a signature is bound to one method
	_, err = envelope.Verify("Driver.Collect", env, payload)
	assert.Equal(t, fault.InvalidSignature, err, "wrong method")
}

func TestVerifyConsumesNonce(t *testing.T) {
	setup(t)
	defer teardown(t)

	privateKey, _ := makeKey(t)
	payload := envelope.Packed{}.AppendString("x")

	env, err := envelope.Sign("Driver.Mint", privateKey, account.Account{}, 5, payload)
	assert.NoError(t, err, "sign")

	_, err = envelope.Verify("Driver.Mint", env, payload)
	assert.NoError(t, err, "first verify")

	// replay is refused
	_, err = envelope.Verify("Driver.Mint", env, payload)
	assert.Equal(t, fault.StaleNonce, err, "replayed envelope")

	// an older nonce is refused as well
	old, err := envelope.Sign("Driver.Mint", privateKey, account.Account{}, 4, payload)
	assert.NoError(t, err, "sign older")
	_, err = envelope.Verify("Driver.Mint", old, payload)
	assert.Equal(t, fault.StaleNonce, err, "older nonce")

	// the next nonce passes
	next, err := envelope.Sign("Driver.Mint", privateKey, account.Account{}, 6, payload)
	assert.NoError(t, err, "sign next")
	_, err = envelope.Verify("Driver.Mint", next, payload)
	assert.NoError(t, err, "next nonce")
}

func TestVerifyRelayedOrigin(t *testing.T) {
	setup(t)
	defer teardown(t)

	privateKey, from := makeKey(t)
	_, origin := makeKey(t)
	payload := envelope.Packed{}.AppendString("x")

	env, err := envelope.Sign("Driver.Mint", privateKey, origin, 1, payload)
	assert.NoError(t, err, "sign")

	call, err := envelope.Verify("Driver.Mint", env, payload)
	assert.NoError(t, err, "verify")
	assert.Equal(t, from, call.From, "relay as sender")
	assert.Equal(t, origin, call.Origin, "origin preserved")
}

func TestVerifyZeroSender(t *testing.T) {
	setup(t)
	defer teardown(t)

	env := envelope.Envelope{Nonce: 1}
	_, err := envelope.Verify("Driver.Mint", env, nil)
	assert.Equal(t, fault.InvalidSignature, err, "zero sender")
}
