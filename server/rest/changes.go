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
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"strconv"
	gotime "time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/server/backend/watch"
	"github.com/scieloorg/kernel/server/logging"
)

// writeTimeout bounds every write to a watcher of the change stream.
const writeTimeout = 10 * gotime.Second

type changesResponse struct {
	Since   string         `json:"since"`
	Limit   int            `json:"limit"`
	Results []types.Change `json:"results"`
}

// getChanges returns the changes after "since", at most "limit" of them.
func (s *Server) getChanges(c *gin.Context) {
	since := c.Query("since")
	limit := s.handlers.ChangesLimit()
	if raw, ok := c.GetQuery("limit"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("limit must be integer: %w", types.ErrInvalidArgument))
			return
		}
		limit = parsed
	}

	results, err := s.handlers.FetchChanges(c.Request.Context(), since, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, changesResponse{
		Since:   since,
		Limit:   limit,
		Results: results,
	})
}

func (s *Server) getChange(c *gin.Context) {
	change, err := s.handlers.FetchChange(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

// watchChanges upgrades the request to a websocket and streams the events
// notified from then on, one JSON message per event.
func (s *Server) watchChanges(c *gin.Context) {
	reqLogger := logging.From(c.Request.Context())
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		reqLogger.Warnf("upgrade change stream: %v", err)
		return
	}

	watcher := s.be.Watch.Watch()
	if s.be.Metrics != nil {
		s.be.Metrics.AddWatchConnections()
	}

	if !s.be.Background.Attach(func(ctx context.Context) {
		s.writeEvents(ctx, conn, watcher)
	}, "watch") {
		s.be.Watch.Unwatch(watcher)
		if s.be.Metrics != nil {
			s.be.Metrics.RemoveWatchConnections()
		}
		_ = conn.Close()
		return
	}
	reqLogger.Debugf("watcher %s attached", watcher.ID())

	readUntilClosed(conn)
	s.be.Watch.Unwatch(watcher)
	reqLogger.Debugf("watcher %s detached", watcher.ID())
}

// writeEvents writes the events of the watcher to the connection and pings
// it in between. It closes the connection when the watcher is dropped or
// the backend shuts down.
func (s *Server) writeEvents(ctx context.Context, conn *websocket.Conn, watcher *watch.Watcher) {
	ticker := gotime.NewTicker(s.conf.ParsePingInterval())
	defer func() {
		ticker.Stop()
		s.be.Watch.Unwatch(watcher)
		if s.be.Metrics != nil {
			s.be.Metrics.RemoveWatchConnections()
		}
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				writeClose(conn, websocket.CloseNormalClosure)
				return
			}
			_ = conn.SetWriteDeadline(gotime.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logging.From(ctx).Debugf("write to watcher %s: %v", watcher.ID(), err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(gotime.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logging.From(ctx).Debugf("ping watcher %s: %v", watcher.ID(), err)
				return
			}
		case <-ctx.Done():
			writeClose(conn, websocket.CloseGoingAway)
			return
		}
	}
}

// readUntilClosed discards the messages of the client until the connection
// is closed.
func readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			var closeErr *websocket.CloseError
			if !goerrors.As(err, &closeErr) {
				logging.DefaultLogger().Debugf("read change stream: %v", err)
			}
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, gotime.Now().Add(writeTimeout))
}
