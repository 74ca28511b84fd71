// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"sync"

	"github.com/R3E-Network/data_harmony/internal/app/storage"
)

// Op names a storage.Collection method.
type Op string

const (
	OpFindAll    Op = "FindAll"
	OpFindByID   Op = "FindByID"
	OpInsertOne  Op = "InsertOne"
	OpInsertMany Op = "InsertMany"
	OpDeleteOne  Op = "DeleteOne"
	OpDeleteAll  Op = "DeleteAll"
	OpCount      Op = "Count"
	OpMaxID      Op = "MaxID"
)

// FaultyCollection wraps a collection and returns injected errors for
// selected operations. Calls are counted whether or not they fail.
type FaultyCollection[T storage.Document] struct {
	inner storage.Collection[T]

	mu     sync.Mutex
	faults map[Op]error
	calls  map[Op]int
}

// NewFaultyCollection wraps inner with no faults configured.
func NewFaultyCollection[T storage.Document](inner storage.Collection[T]) *FaultyCollection[T] {
	return &FaultyCollection[T]{
		inner:  inner,
		faults: make(map[Op]error),
		calls:  make(map[Op]int),
	}
}

// Fail makes op return err until cleared with a nil err.
func (f *FaultyCollection[T]) Fail(op Op, err error) *FaultyCollection[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.faults, op)
	} else {
		f.faults[op] = err
	}
	return f
}

// Calls returns how many times op was invoked.
func (f *FaultyCollection[T]) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FaultyCollection[T]) record(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.faults[op]
}

func (f *FaultyCollection[T]) FindAll(ctx context.Context) ([]T, error) {
	if err := f.record(OpFindAll); err != nil {
		return nil, err
	}
	return f.inner.FindAll(ctx)
}

func (f *FaultyCollection[T]) FindByID(ctx context.Context, id int64) (T, bool, error) {
	if err := f.record(OpFindByID); err != nil {
		var zero T
		return zero, false, err
	}
	return f.inner.FindByID(ctx, id)
}

func (f *FaultyCollection[T]) InsertOne(ctx context.Context, doc T) error {
	if err := f.record(OpInsertOne); err != nil {
		return err
	}
	return f.inner.InsertOne(ctx, doc)
}

func (f *FaultyCollection[T]) InsertMany(ctx context.Context, docs []T) error {
	if err := f.record(OpInsertMany); err != nil {
		return err
	}
	return f.inner.InsertMany(ctx, docs)
}

func (f *FaultyCollection[T]) DeleteOne(ctx context.Context, id int64) (bool, error) {
	if err := f.record(OpDeleteOne); err != nil {
		return false, err
	}
	return f.inner.DeleteOne(ctx, id)
}

func (f *FaultyCollection[T]) DeleteAll(ctx context.Context) (int64, error) {
	if err := f.record(OpDeleteAll); err != nil {
		return 0, err
	}
	return f.inner.DeleteAll(ctx)
}

func (f *FaultyCollection[T]) Count(ctx context.Context) (int64, error) {
	if err := f.record(OpCount); err != nil {
		return 0, err
	}
	return f.inner.Count(ctx)
}

func (f *FaultyCollection[T]) MaxID(ctx context.Context) (int64, error) {
	if err := f.record(OpMaxID); err != nil {
		return 0, err
	}
	return f.inner.MaxID(ctx)
}
