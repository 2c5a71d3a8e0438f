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

package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scieloorg/kernel/pkg/errors"
	"github.com/scieloorg/kernel/server/logging"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusOf returns the HTTP status code of the given error.
func statusOf(err error) int {
	switch errors.StatusOf(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case errors.ErrCodeAlreadyExists, errors.ErrCodeFailedPrecondition:
		return http.StatusConflict
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError ends the request with the status of the given error.
func abortWithError(c *gin.Context, err error) {
	abortWithStatus(c, statusOf(err), err)
}

// abortWithStatus ends the request with the given status, reporting the
// message of the given error.
func abortWithStatus(c *gin.Context, code int, err error) {
	_ = c.Error(err)

	info := errors.ErrorInfoOf(err)
	if code >= http.StatusInternalServerError {
		logging.From(c.Request.Context()).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else if info.Code != "" {
		logging.From(c.Request.Context()).Debugf("%s %s: %s: %v", c.Request.Method, c.Request.URL.Path, info.Code, err)
	}

	c.AbortWithStatusJSON(code, errorResponse{Error: err.Error()})
}
