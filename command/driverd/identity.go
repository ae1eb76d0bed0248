// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/driverd/account"
)

// makeDriverIdentity - generate an ed25519 key pair and store the
// private key as a hex string file, refusing to overwrite an
// existing key
func makeDriverIdentity(privateKeyFileName string) error {

	if _, err := os.Stat(privateKeyFileName); nil == err {
		return errors.New(fmt.Sprintf("key file: %q already exists", privateKeyFileName))
	}

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		return err
	}

	data := hex.EncodeToString(privateKey) + "\n"
	if err := ioutil.WriteFile(privateKeyFileName, []byte(data), 0600); nil != err {
		return err
	}

	self, err := account.FromBytes(privateKey.Public().(ed25519.PublicKey))
	if nil != err {
		return err
	}
	fmt.Printf("driver account: %s\n", self)

	return nil
}

// read a hex encoded ed25519 private key file and derive the
// driver's own account from it
func readDriverIdentity(privateKeyFileName string) (ed25519.PrivateKey, account.Account, error) {

	var self account.Account

	data, err := ioutil.ReadFile(privateKeyFileName)
	if nil != err {
		return nil, self, err
	}

	privateKey, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if nil != err {
		return nil, self, err
	}
	if ed25519.PrivateKeySize != len(privateKey) {
		return nil, self, errors.New(fmt.Sprintf("key file: %q has invalid length", privateKeyFileName))
	}

	self, err = account.FromBytes(ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey))
	if nil != err {
		return nil, self, err
	}

	return ed25519.PrivateKey(privateKey), self, nil
}
