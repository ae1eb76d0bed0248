// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node - status information about this daemon
package node

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/account"
	"github.com/bitmark-inc/driverd/counter"
	"github.com/bitmark-inc/driverd/custody"
	"github.com/bitmark-inc/driverd/driver"
	"github.com/bitmark-inc/driverd/identifier"
	"github.com/bitmark-inc/driverd/mode"
	"github.com/bitmark-inc/driverd/rpc/ratelimit"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Node - type for RPC calls
type Node struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
	counter *counter.Counter
}

func New(log *logger.L, start time.Time, version string, counter *counter.Counter) *Node {
	return &Node{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:   start,
		Version: version,
		counter: counter,
	}
}

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Chain        string               `json:"chain"`
	Mode         string               `json:"mode"`
	Tag          identifier.DriverTag `json:"tag"`
	NextIdentity identifier.Identity  `json:"nextIdentity"`
	Custody      account.Account      `json:"custody"`
	RPCs         uint64               `json:"rpcs"`
	Version      string               `json:"version"`
	Uptime       string               `json:"uptime"`
}

// Info - return some information about this daemon
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {
	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}

	reply.Chain = mode.ChainName()
	reply.Mode = mode.String()
	reply.Tag = driver.Tag()
	reply.NextIdentity = driver.NextIdentity()
	reply.Custody = custody.Self()
	reply.RPCs = node.counter.Uint64()
	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	return nil
}
