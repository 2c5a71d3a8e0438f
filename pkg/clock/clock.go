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

// Package clock provides the clocks that stamp every version and change, and
// the codec of their canonical string form.
package clock

import (
	"fmt"
	"strings"
	gosync "sync"
	"time"
)

// Layout is the canonical form of a timestamp: UTC with microseconds and a
// trailing Z. Timestamps in this form sort lexicographically in time order.
const Layout = "2006-01-02T15:04:05.000000Z"

// Clock is the source of time of the kernel.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// Format formats the given time in the canonical layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Now returns the current time of the given clock in the canonical layout.
func Now(c Clock) string {
	return Format(c.Now())
}

var parseLayouts = []string{
	Layout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// Parse parses a timestamp given by a caller. It accepts the canonical
// layout, RFC3339 with or without fraction and a bare date. Timestamps
// without a zone other than bare dates are rejected.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("parse timestamp %q: unknown format", value)
}

// System is the wall clock. It never returns the same instant twice, so that
// the timestamps it hands out within a process are strictly monotone.
type System struct {
	mu   gosync.Mutex
	last time.Time
}

// NewSystem creates a new instance of System.
func NewSystem() *System {
	return &System{}
}

// Now returns the current time truncated to microseconds. If the wall clock
// did not advance since the last call, the last instant plus one microsecond
// is returned.
func (c *System) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}

// Fake is a controllable clock for tests. Every call to Now advances it by
// the configured step.
type Fake struct {
	mu   gosync.Mutex
	now  time.Time
	step time.Duration
}

// NewFake creates a new instance of Fake starting at the given time.
func NewFake(start time.Time, step time.Duration) *Fake {
	return &Fake{
		now:  start.UTC(),
		step: step,
	}
}

// Now returns the current time of the clock and advances it.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set moves the clock to the given time.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t.UTC()
}
