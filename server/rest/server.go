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

// Package rest serves the kernel over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	gotime "time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/commands"
	"github.com/scieloorg/kernel/server/logging"
)

// Server is the HTTP server of the kernel.
type Server struct {
	conf       *Config
	be         *backend.Backend
	handlers   *commands.Handlers
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend, handlers *commands.Handlers) *Server {
	if !logging.Enabled(zap.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		conf:     conf,
		be:       be,
		handlers: handlers,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           s.newEngine(),
		ReadHeaderTimeout: 5 * gotime.Second,
	}

	return s
}

func (s *Server) newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		withLogger(),
		withMetrics(s.be.Metrics),
		cors.New(s.corsConfig()),
	)

	engine.GET("/healthz", s.healthz)

	documents := engine.Group("/documents/:id")
	documents.PUT("", s.putDocument)
	documents.GET("", s.getDocument)
	documents.DELETE("", s.deleteDocument)
	documents.GET("/manifest", s.getDocumentManifest)
	documents.GET("/assets", s.getAssetsList)
	documents.PUT("/assets/:asset", s.putAsset)
	documents.GET("/renditions", s.getRenditions)
	documents.PUT("/renditions", s.putRendition)
	documents.GET("/diff", s.getDiff)

	bundles := engine.Group("/bundles/:id")
	bundles.PUT("", s.putBundle)
	bundles.GET("", s.getBundle)
	bundles.PATCH("", s.patchBundle)
	bundles.PATCH("/documents", s.patchBundleDocuments)
	bundles.PUT("/documents", s.putBundleDocuments)

	journals := engine.Group("/journals/:id")
	journals.PUT("", s.putJournal)
	journals.GET("", s.getJournal)
	journals.PATCH("", s.patchJournal)
	journals.PATCH("/issues", s.patchJournalIssues)
	journals.PUT("/issues", s.putJournalIssues)
	journals.DELETE("/issues", s.deleteJournalIssue)
	journals.PATCH("/aop", s.patchJournalAOP)
	journals.DELETE("/aop", s.deleteJournalAOP)

	engine.GET("/changes", s.getChanges)
	engine.GET("/changes/watch", s.watchChanges)
	engine.GET("/changes/:id", s.getChange)

	return engine
}

func (s *Server) corsConfig() cors.Config {
	conf := cors.Config{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * gotime.Hour,
	}
	if s.conf.allowsAnyOrigin() {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = s.conf.CORSOrigins
	}

	return conf
}

// checkOrigin applies the CORS origins to the upgrade of the change stream.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.conf.allowsAnyOrigin() {
		return true
	}

	for _, allowed := range s.conf.CORSOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// Handler returns the handler of this server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts this server by opening the HTTP port.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %d: %w", s.conf.Port, err)
	}

	go func() {
		logging.DefaultLogger().Infof("serving HTTP on %d", s.conf.Port)

		if err := s.httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Errorf("HTTP server Serve: %v", err)
		}
	}()

	return nil
}

// Shutdown shuts down this server. A graceful shutdown waits for the
// requests in flight up to the configured timeout.
func (s *Server) Shutdown(graceful bool) {
	if !graceful {
		if err := s.httpServer.Close(); err != nil {
			logging.DefaultLogger().Errorf("HTTP server Close: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.conf.ParseShutdownTimeout())
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "SERVING"})
}
