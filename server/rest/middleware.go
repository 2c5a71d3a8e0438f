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
	gotime "time"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"

	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
)

const (
	// RequestIDHeader is the header carrying the id of a request.
	RequestIDHeader = "X-Request-Id"

	// SlowThreshold is the threshold for slow requests.
	SlowThreshold = 100 * gotime.Millisecond

	// unmatchedRoute labels the requests that matched no route.
	unmatchedRoute = "unmatched"
)

// withLogger assigns an id to every request and stores a logger carrying
// it in the context of the request.
func withLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		c.Header(RequestIDHeader, id)

		reqLogger := logging.New("rest", logging.NewField("request", id))
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), reqLogger))

		start := gotime.Now()
		c.Next()

		elapsed := gotime.Since(start)
		status := c.Writer.Status()
		switch {
		case status >= 500:
			reqLogger.Warnf("HTTP : %s %s %d %s: %s", c.Request.Method, c.Request.URL.Path, status, elapsed, c.Errors.String())
		case elapsed > SlowThreshold:
			reqLogger.Infof("HTTP : %s %s %d %s", c.Request.Method, c.Request.URL.Path, status, elapsed)
		default:
			reqLogger.Debugf("HTTP : %s %s %d %s", c.Request.Method, c.Request.URL.Path, status, elapsed)
		}
	}
}

// withMetrics observes the requests by method, route and status code.
func withMetrics(metrics *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := gotime.Now()
		c.Next()

		if metrics == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), gotime.Since(start).Seconds())
	}
}
