// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
)

// generate a keyed account for testing
func makeAccount(t *testing.T) (account.Account, ed25519.PrivateKey) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	acc, err := account.FromBytes(publicKey)
	if nil != err {
		t.Fatalf("account from bytes error: %s", err)
	}
	return acc, privateKey
}

// check that Base58 encode and decode round trip
func TestBase58RoundTrip(t *testing.T) {
	acc, _ := makeAccount(t)

	encoded := acc.String()
	decoded, err := account.FromBase58(encoded)
	if nil != err {
		t.Fatalf("decode error: %s", err)
	}
	if decoded != acc {
		t.Fatalf("round trip mismatch: actual: %v  expected: %v", decoded, acc)
	}
}

// check that a corrupted checksum is rejected
func TestChecksumMismatch(t *testing.T) {
	acc, _ := makeAccount(t)

	encoded := acc.String()
	corrupted := []byte(encoded)
	if corrupted[4] == '2' {
		corrupted[4] = '3'
	} else {
		corrupted[4] = '2'
	}
	_, err := account.FromBase58(string(corrupted))
	if nil == err {
		t.Fatal("unexpected success decoding corrupted account")
	}
}

// check that a wrong length buffer is rejected
func TestInvalidLength(t *testing.T) {
	_, err := account.FromBytes(bytes.Repeat([]byte{0x42}, account.AccountLength-1))
	if fault.InvalidKeyLength != err {
		t.Fatalf("unexpected error: %v  expected: %v", err, fault.InvalidKeyLength)
	}
}

// check signature verification
func TestCheckSignature(t *testing.T) {
	acc, privateKey := makeAccount(t)

	message := []byte("arbitrary message for signing")
	signature := account.Signature(ed25519.Sign(privateKey, message))

	if err := acc.CheckSignature(message, signature); nil != err {
		t.Fatalf("signature check error: %s", err)
	}

	// altered message must fail
	if err := acc.CheckSignature(append(message, '!'), signature); fault.InvalidSignature != err {
		t.Fatalf("unexpected error: %v  expected: %v", err, fault.InvalidSignature)
	}

	// truncated signature must fail
	if err := acc.CheckSignature(message, signature[:10]); fault.InvalidSignature != err {
		t.Fatalf("unexpected error: %v  expected: %v", err, fault.InvalidSignature)
	}
}

// the zero account must be detectable and unique
func TestIsZero(t *testing.T) {
	var zero account.Account
	if !zero.IsZero() {
		t.Fatal("zero account not detected")
	}

	acc, _ := makeAccount(t)
	if acc.IsZero() {
		t.Fatal("keyed account reported as zero")
	}
}

// text marshalling round trip
func TestMarshalText(t *testing.T) {
	acc, _ := makeAccount(t)

	text, err := acc.MarshalText()
	if nil != err {
		t.Fatalf("marshal error: %s", err)
	}

	var decoded account.Account
	if err := decoded.UnmarshalText(text); nil != err {
		t.Fatalf("unmarshal error: %s", err)
	}
	if decoded != acc {
		t.Fatalf("round trip mismatch: actual: %v  expected: %v", decoded, acc)
	}
}
