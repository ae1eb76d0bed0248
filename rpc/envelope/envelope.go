// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package envelope - signed call envelopes for the client RPC
//
// There is no account abstraction on a plain TCP transport, so every
// mutating RPC carries an envelope naming the sending account and an
// ed25519 signature over a canonical packing of the call. A trusted
// relay fills in the origin field to act for another account; the
// relay package decides whether that origin is honoured.
//
// The nonce must be strictly increasing per sending account; the last
// accepted nonce is persisted so a replayed call is rejected even
// across a restart.
package envelope

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/relay"
	"github.com/bitmark-inc/driverd/storage"
)

// nonce records: 'N' ++ account in the driver state pool
var noncePrefix = []byte{'N'}

// serialises nonce check-and-store
var nonceLock sync.Mutex

// Envelope - the authentication part of a mutating RPC argument
type Envelope struct {
	From      account.Account   `json:"from"`
	Origin    account.Account   `json:"origin,omitempty"`
	Nonce     uint64            `json:"nonce,string"`
	Signature account.Signature `json:"signature"`
}

// Digest - the canonical signing digest of one call
//
// method binds the signature to a single RPC; payload is the packed
// method-specific arguments
func Digest(method string, from account.Account, origin account.Account, nonce uint64, payload []byte) []byte {
	h := sha3.New256()
	h.Write([]byte(method))
	h.Write([]byte{0x00})
	h.Write(from.Bytes())
	h.Write(origin.Bytes())

	nonceBuffer := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBuffer, nonce)
	h.Write(nonceBuffer)

	h.Write(payload)
	return h.Sum(nil)
}

// Sign - create a signed envelope for a call
//
// for clients and tests; the daemon only verifies
func Sign(method string, privateKey ed25519.PrivateKey, origin account.Account, nonce uint64, payload []byte) (Envelope, error) {
	from, err := account.FromBytes(privateKey.Public().(ed25519.PublicKey))
	if nil != err {
		return Envelope{}, err
	}

	digest := Digest(method, from, origin, nonce, payload)
	return Envelope{
		From:      from,
		Origin:    origin,
		Nonce:     nonce,
		Signature: account.Signature(ed25519.Sign(privateKey, digest)),
	}, nil
}

// Verify - check an envelope and produce the caller envelope
//
// a verified envelope proves control of the From account; the nonce is
// consumed, so verification of the same envelope twice fails
func Verify(method string, env Envelope, payload []byte) (relay.Call, error) {
	if env.From.IsZero() {
		return relay.Call{}, fault.InvalidSignature
	}

	digest := Digest(method, env.From, env.Origin, env.Nonce, payload)
	if err := env.From.CheckSignature(digest, env.Signature); nil != err {
		return relay.Call{}, err
	}

	nonceLock.Lock()
	defer nonceLock.Unlock()

	key := append(noncePrefix, env.From.Bytes()...)
	last, found := storage.Pool.DriverState.GetN(key)
	if found && env.Nonce <= last {
		return relay.Call{}, fault.StaleNonce
	}
	storage.Pool.DriverState.PutN(key, env.Nonce)

	return relay.Call{From: env.From, Origin: env.Origin}, nil
}
