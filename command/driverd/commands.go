// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/bitmark-inc/exitwithstatus"
)

// setup command handler
// commands that run to create key and certificate files
// these commands cannot access any internal database or states
func processSetupCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "gen-driver-identity", "driver":
		privateKeyFilename := options.Driver.PrivateKey
		if len(arguments) >= 1 && "" != arguments[0] {
			privateKeyFilename = arguments[0]
		}
		err := makeDriverIdentity(privateKeyFilename)
		if nil != err {
			fmt.Printf("cannot generate driver identity: %q error: %s\n", privateKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("driver identity created: %q\n", privateKeyFilename)

	case "show-config", "config":
		b, err := json.MarshalIndent(options, "", "  ")
		if nil != err {
			fmt.Printf("cannot display configuration  error: %s\n", err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("%s\n", b)

	case "start", "run":
		return false // continue into main program

	case "version":
		fmt.Println(version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Println("error: missing command")
		default:
			fmt.Printf("error: no such command: %s\n", command)
		}

		fmt.Println("supported commands:")
		fmt.Println()
		fmt.Println("  help                               (h)       - display this message")
		fmt.Println()
		fmt.Println("  gen-driver-identity [FILE]         (driver)   - create the driver's private key")
		fmt.Println()
		fmt.Println("  show-config                        (config)   - display the parsed configuration")
		fmt.Println()
		fmt.Println("  start                              (run)      - just run the program, same as no arguments")
		fmt.Println("                                                  for convenience when passing script arguments")
		fmt.Println()
		fmt.Println("  version                                       - display the current version")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and prevent running of main program
	return true
}
