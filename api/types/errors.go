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

package types

import (
	"github.com/scieloorg/kernel/pkg/errors"
)

// Below are the kinds of failure raised by the aggregates, repositories and
// command handlers. Specific failures wrap one of them.
var (
	// ErrDoesNotExist is returned when the requested id or version is absent.
	ErrDoesNotExist = errors.NotFound("does not exist").WithCode("ErrDoesNotExist")

	// ErrAlreadyExists is returned on a duplicate add, a duplicate issue or
	// a duplicate bundle item.
	ErrAlreadyExists = errors.AlreadyExists("already exists").WithCode("ErrAlreadyExists")

	// ErrVersionAlreadySet is returned when the same version is submitted
	// again.
	ErrVersionAlreadySet = errors.FailedPrecond("version already set").WithCode("ErrVersionAlreadySet")

	// ErrRetryable is returned when concurrent writes exhausted the retries.
	ErrRetryable = errors.Unavailable("concurrent update, retry later").WithCode("ErrRetryable")

	// ErrInvalidArgument is returned when the input is malformed.
	ErrInvalidArgument = errors.InvalidArgument("invalid argument").WithCode("ErrInvalidArgument")
)
