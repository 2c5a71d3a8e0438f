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

// Package changes provides the change log: the append-only, replayable feed
// of every write committed to an aggregate.
package changes

import (
	"context"
	"errors"
	"fmt"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/server/backend/database"
)

// DefaultLimit is the number of changes returned when the caller gives none.
const DefaultLimit = 500

// Log is the change log.
type Log struct {
	db    database.Database
	clock clock.Clock
}

// New creates a new instance of Log.
func New(db database.Database, clk clock.Clock) *Log {
	return &Log{
		db:    db,
		clock: clk,
	}
}

// Add appends an entry for the given entity stamped with the current time.
func (l *Log) Add(
	ctx context.Context,
	entity types.EntityKind,
	id string,
	deleted bool,
) (*database.ChangeInfo, error) {
	info := &database.ChangeInfo{
		Entity:    entity,
		EntityID:  id,
		Timestamp: clock.Now(l.clock),
		Deleted:   deleted,
	}
	if err := l.db.AppendChange(ctx, info); err != nil {
		return nil, err
	}

	return info, nil
}

// Filter returns at most limit changes ordered by time. An empty since starts
// from the first change; otherwise the changes after the first one stamped
// with since are returned, and nothing when no change carries it.
func (l *Log) Filter(ctx context.Context, since string, limit int) ([]types.Change, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, types.ErrInvalidArgument)
	}

	infos, err := l.db.FindChanges(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.Change, 0, len(infos))
	for _, info := range infos {
		results = append(results, info.ToChange())
	}
	return results, nil
}

// Fetch returns the change of the given id.
func (l *Log) Fetch(ctx context.Context, id string) (types.Change, error) {
	info, err := l.db.FindChangeInfo(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrChangeNotFound) {
			return types.Change{}, fmt.Errorf("change %s: %w", id, types.ErrDoesNotExist)
		}
		return types.Change{}, err
	}

	return info.ToChange(), nil
}
