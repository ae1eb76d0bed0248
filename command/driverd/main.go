// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/chain"
	"github.com/bitmark-inc/driverd/custody"
	"github.com/bitmark-inc/driverd/driver"
	"github.com/bitmark-inc/driverd/fault"
	"github.com/bitmark-inc/driverd/ledger"
	"github.com/bitmark-inc/driverd/mode"
	"github.com/bitmark-inc/driverd/relay"
	"github.com/bitmark-inc/driverd/rpc"
	"github.com/bitmark-inc/driverd/storage"
	"github.com/bitmark-inc/driverd/token"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		fmt.Println(version)
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand([]string{"help"}, nil)
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// setup commands require the configuration for their default
	// file names but no database or network access
	if len(arguments) > 0 && processSetupCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// panic log channel for last-resort messages
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault initialise error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set the initial system mode - before any background tasks are started
	err = mode.Initialise(theConfiguration.Chain)
	if nil != err {
		log.Criticalf("mode initialise error: %s", err)
		exitwithstatus.Message("%s: mode initialise error: %s", program, err)
	}
	defer mode.Finalise()

	// the driver's own signing identity
	_, self, err := readDriverIdentity(theConfiguration.Driver.PrivateKey)
	if nil != err {
		log.Criticalf("driver identity error: %s", err)
		exitwithstatus.Message("%s: driver identity: %q error: %s  (create one with: %s -c %s gen-driver-identity)",
			program, theConfiguration.Driver.PrivateKey, err, program, configurationFile)
	}
	log.Infof("driver account: %s", self)

	reserve, err := account.FromBase58(theConfiguration.Driver.Reserve)
	if nil != err {
		log.Criticalf("reserve account error: %s", err)
		exitwithstatus.Message("%s: reserve account: %q error: %s", program, theConfiguration.Driver.Reserve, err)
	}

	// trusted relay is optional; the zero account disables relayed calls
	var trustedRelay account.Account
	if "" != theConfiguration.Driver.TrustedRelay {
		trustedRelay, err = account.FromBase58(theConfiguration.Driver.TrustedRelay)
		if nil != err {
			log.Criticalf("trusted relay account error: %s", err)
			exitwithstatus.Message("%s: trusted relay account: %q error: %s", program, theConfiguration.Driver.TrustedRelay, err)
		}
	}

	// start the data storage
	log.Info("start storage")
	err = storage.Initialise(theConfiguration.Database.Name)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("%s: storage initialise error: %s", program, err)
	}
	defer storage.Finalise()

	// token registry
	err = token.Initialise()
	if nil != err {
		log.Criticalf("token initialise error: %s", err)
		exitwithstatus.Message("%s: token initialise error: %s", program, err)
	}
	defer token.Finalise()

	// in-memory tokens for the configured symbols
	// TODO: connect an on-chain token client for the bitmark chain
	if chain.Bitmark == mode.ChainName() {
		log.Warn("no on-chain token client available; using in-memory tokens")
	}
	for _, symbol := range theConfiguration.Driver.Tokens {
		err = token.Register(token.NewMemoryToken(symbol))
		if nil != err {
			log.Criticalf("token: %q register error: %s", symbol, err)
			exitwithstatus.Message("%s: token: %q register error: %s", program, symbol, err)
		}
		log.Infof("registered token: %s", symbol)
	}

	err = relay.Initialise(trustedRelay)
	if nil != err {
		log.Criticalf("relay initialise error: %s", err)
		exitwithstatus.Message("%s: relay initialise error: %s", program, err)
	}
	defer relay.Finalise()

	theLedger := ledger.NewMemoryLedger(reserve)

	// the custody allowance must go to the account the ledger will
	// actually pull from, so ask the ledger rather than trusting the
	// configured value
	err = custody.Initialise(self, theLedger.Reserve())
	if nil != err {
		log.Criticalf("custody initialise error: %s", err)
		exitwithstatus.Message("%s: custody initialise error: %s", program, err)
	}
	defer custody.Finalise()

	err = driver.Initialise(self, theLedger)
	if nil != err {
		log.Criticalf("driver initialise error: %s", err)
		exitwithstatus.Message("%s: driver initialise error: %s", program, err)
	}
	defer driver.Finalise()

	log.Infof("driver tag: %d  next identity: %d", driver.Tag(), driver.NextIdentity())

	// now in normal mode; mutating RPCs are accepted
	mode.Set(mode.Normal)

	// start the RPC server
	err = rpc.Initialise(&theConfiguration.ClientRPC, version)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("%s: rpc initialise error: %s", program, err)
	}
	defer rpc.Finalise()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	mode.Set(mode.Stopped)
}
