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

package commands

import (
	"context"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/server/session"
)

// FetchChanges returns at most limit changes after the one stamped with
// since, or from the first change if since is empty.
func (h *Handlers) FetchChanges(ctx context.Context, since string, limit int) ([]types.Change, error) {
	return query(ctx, h, "FetchChanges", func(ctx context.Context, s *session.Session) ([]types.Change, error) {
		return s.Changes.Filter(ctx, since, limit)
	})
}

// FetchChange returns the change of the given id.
func (h *Handlers) FetchChange(ctx context.Context, id string) (types.Change, error) {
	return query(ctx, h, "FetchChange", func(ctx context.Context, s *session.Session) (types.Change, error) {
		return s.Changes.Fetch(ctx, id)
	})
}
