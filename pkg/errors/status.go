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

// Package errors provides errors that carry a status, so that the layers
// above the domain can translate failures without knowing their origin.
package errors

import "fmt"

// StatusCode represents the kind of failure carried by an error.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller sent a malformed input.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that the requested entity or version does
	// not exist.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists indicates that the entity the caller attempted to
	// create, or the reference it attempted to add, already exists.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodeFailedPrecondition indicates that the operation was rejected
	// because the entity is not in the state required, e.g. the same version
	// was already set.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates that an invariant of the system was broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates a transient failure. Callers can retry.
	ErrCodeUnavailable StatusCode = 14
)

// String returns the string representation of the status code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the status code represents a failure caused
// by the request.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodeFailedPrecondition:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the status code represents a failure of the
// server or its infrastructure.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeInternal, ErrCodeUnavailable:
		return true
	default:
		return false
	}
}
