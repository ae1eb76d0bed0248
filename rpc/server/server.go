// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/counter"
	"github.com/bitmark-inc/driverd/mode"
	"github.com/bitmark-inc/driverd/rpc/credentials"
	"github.com/bitmark-inc/driverd/rpc/driver"
	"github.com/bitmark-inc/driverd/rpc/node"
)

func Create(log *logger.L, version string, rpcCount *counter.Counter) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(driver.New(log, mode.Is))
	_ = server.Register(credentials.New(log, mode.Is))
	_ = server.Register(node.New(log, start, version, rpcCount))

	return server
}
