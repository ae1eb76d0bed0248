// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package token - value-token contracts the driver can custody
//
// Token transfer semantics are assumed to conserve amount exactly:
// no rebasing, no transfer tax. Every operation names its acting
// account explicitly since there is no ambient caller.
package token

import (
	"github.com/bitmark-inc/driverd/account"
)

// MaxAllowance - the maximum representable spending allowance
//
// once granted it is never decremented, so a single grant is
// sufficient for all future transfers
const MaxAllowance = ^uint64(0)

// Token - the interface presented by a value-token contract
type Token interface {

	// Symbol - short unique name of the token
	Symbol() string

	// BalanceOf - current balance of an account
	BalanceOf(owner account.Account) uint64

	// Transfer - move amount from the acting account to another
	Transfer(from account.Account, to account.Account, amount uint64) error

	// TransferFrom - move amount between third parties using the
	// spender's allowance from the source account
	TransferFrom(spender account.Account, from account.Account, to account.Account, amount uint64) error

	// Approve - set the spender's allowance from the acting account
	Approve(owner account.Account, spender account.Account, amount uint64) error

	// Allowance - the spender's remaining allowance from an account
	Allowance(owner account.Account, spender account.Account) uint64
}
