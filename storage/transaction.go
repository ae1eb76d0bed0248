// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/driverd/fault"
)

// Transaction - batched all-or-nothing update across any number of pools
//
// pending writes are visible to Get/GetN/Has through the cache; nothing
// reaches the database until Commit
type Transaction interface {
	Begin() error
	Put(*PoolHandle, []byte, []byte)
	PutN(*PoolHandle, []byte, uint64)
	Delete(*PoolHandle, []byte)
	Get(*PoolHandle, []byte) []byte
	GetN(*PoolHandle, []byte) (uint64, bool)
	Has(*PoolHandle, []byte) bool
	Commit() error
	Abort()
	InUse() bool
}

type transactionData struct {
	sync.Mutex
	inUse bool
	db    *leveldb.DB
	batch *leveldb.Batch
	cache Cache
}

func newTransaction(db *leveldb.DB) Transaction {
	return &transactionData{
		inUse: false,
		db:    db,
		batch: new(leveldb.Batch),
		cache: newCache(),
	}
}

func (t *transactionData) Begin() error {
	t.Lock()
	defer t.Unlock()

	if t.inUse {
		return fault.TransactionInUse
	}

	t.batch.Reset()
	t.cache.Clear()
	t.inUse = true
	return nil
}

func (t *transactionData) Put(p *PoolHandle, key []byte, value []byte) {
	prefixed := p.prefixKey(key)
	t.cache.Set(dbPut, string(prefixed), value)
	t.batch.Put(prefixed, value)
}

func (t *transactionData) PutN(p *PoolHandle, key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	t.Put(p, key, buffer)
}

func (t *transactionData) Delete(p *PoolHandle, key []byte) {
	prefixed := p.prefixKey(key)
	t.cache.Set(dbDelete, string(prefixed), []byte{})
	t.batch.Delete(prefixed)
}

func (t *transactionData) Get(p *PoolHandle, key []byte) []byte {
	prefixed := p.prefixKey(key)
	if value, found := t.cache.Get(string(prefixed)); found {
		return value
	}

	value, err := t.db.Get(prefixed, nil)
	if leveldb.ErrNotFound == err {
		return nil
	}
	logger.PanicIfError("transaction.Get", err)
	return value
}

func (t *transactionData) GetN(p *PoolHandle, key []byte) (uint64, bool) {
	buffer := t.Get(p, key)
	if nil == buffer {
		return 0, false
	}
	if len(buffer) < 8 {
		logger.Panicf("transaction.GetN truncated record for: %x: %s", key, buffer)
	}
	return binary.BigEndian.Uint64(buffer[:8]), true
}

func (t *transactionData) Has(p *PoolHandle, key []byte) bool {
	prefixed := p.prefixKey(key)
	if _, found := t.cache.Get(string(prefixed)); found {
		return true
	}
	has, err := t.db.Has(prefixed, nil)
	logger.PanicIfError("transaction.Has", err)
	return has
}

func (t *transactionData) Commit() error {
	t.Lock()
	defer t.Unlock()

	err := t.db.Write(t.batch, nil)
	t.batch.Reset()
	t.cache.Clear()
	t.inUse = false
	return err
}

func (t *transactionData) Abort() {
	t.Lock()
	defer t.Unlock()

	t.batch.Reset()
	t.cache.Clear()
	t.inUse = false
}

func (t *transactionData) InUse() bool {
	t.Lock()
	defer t.Unlock()
	return t.inUse
}
