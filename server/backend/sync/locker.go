/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sync provides the per-key lockers that serialize the writes of an
// aggregate within a process.
package sync

import (
	"context"
	"fmt"

	"github.com/moby/locker"
)

// Key represents key of Locker.
type Key string

// NewKey creates a new instance of Key for the given entity and id.
func NewKey(entity, id string) Key {
	return Key(fmt.Sprintf("%s/%s", entity, id))
}

// String returns a string representation of this Key.
func (k Key) String() string {
	return string(k)
}

// LockerManager manages Lockers.
type LockerManager struct {
	locks *locker.Locker
}

// New creates a new instance of LockerManager.
func New() *LockerManager {
	return &LockerManager{
		locks: locker.New(),
	}
}

// NewLocker creates locker of the given key.
func (m *LockerManager) NewLocker(key Key) Locker {
	return &internalLocker{
		key:   key.String(),
		locks: m.locks,
	}
}

// A Locker represents an object that can be locked and unlocked.
type Locker interface {
	// Lock locks the mutex. It fails without locking when ctx is done.
	Lock(ctx context.Context) error

	// Unlock unlocks the mutex.
	Unlock() error
}

type internalLocker struct {
	key   string
	locks *locker.Locker
}

// Lock locks the mutex. If ctx is done while waiting, Lock returns the
// context error and the lock, once acquired, is released in the background.
func (il *internalLocker) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("lock %s: %w", il.key, err)
	}

	acquired := make(chan struct{})
	go func() {
		il.locks.Lock(il.key)
		close(acquired)
	}()

	select {
	case <-acquired:
		return nil
	case <-ctx.Done():
		go func() {
			<-acquired
			_ = il.locks.Unlock(il.key)
		}()
		return fmt.Errorf("lock %s: %w", il.key, ctx.Err())
	}
}

// Unlock unlocks the mutex.
func (il *internalLocker) Unlock() error {
	if err := il.locks.Unlock(il.key); err != nil {
		return fmt.Errorf("unlock %s: %w", il.key, err)
	}

	return nil
}
