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
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/journal"
	"github.com/scieloorg/kernel/server/logging"
)

type issueRequest struct {
	Issue reference `json:"issue" validate:"required"`
	Index *int      `json:"index"`
}

type aopRequest struct {
	AOP string `json:"aop" validate:"required"`
}

// putJournal creates a journal, or updates the metadata of an existing one.
func (s *Server) putJournal(c *gin.Context) {
	id := c.Param("id")
	values, err := bindMetadata(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	err = s.handlers.CreateJournal(ctx, id, values)
	if err == nil {
		c.Status(http.StatusCreated)
		return
	}
	if !goerrors.Is(err, types.ErrAlreadyExists) {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.UpdateJournalMetadata(ctx, id, values); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getJournal(c *gin.Context) {
	manifest, err := s.handlers.FetchJournal(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, manifest)
}

func (s *Server) patchJournal(c *gin.Context) {
	values, err := bindMetadata(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.UpdateJournalMetadata(c.Request.Context(), c.Param("id"), values); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// patchJournalIssues adds an issue to a journal, at the given index if any.
// Adding an issue the journal already holds is not an error, but adding its
// ahead of print bundle is unprocessable.
func (s *Server) patchJournalIssues(c *gin.Context) {
	id := c.Param("id")
	req := &issueRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.Index != nil {
		err = s.handlers.InsertIssueToJournal(ctx, id, *req.Index, string(req.Issue))
	} else {
		err = s.handlers.AddIssueToJournal(ctx, id, string(req.Issue))
	}

	switch {
	case err == nil:
	case goerrors.Is(err, journal.ErrIssueIsAheadOfPrint):
		abortWithStatus(c, http.StatusUnprocessableEntity, err)
		return
	case goerrors.Is(err, types.ErrAlreadyExists):
		logging.From(ctx).Infof("skipping issue %s of %s: %v", req.Issue, id, err)
	default:
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// putJournalIssues replaces the issues of a journal. A list holding the
// same issue twice is unprocessable.
func (s *Server) putJournalIssues(c *gin.Context) {
	items, err := bindJSONList[referenceItem](c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.UpdateIssuesInJournal(c.Request.Context(), c.Param("id"), idsOf(items)); err != nil {
		if goerrors.Is(err, types.ErrAlreadyExists) {
			abortWithStatus(c, http.StatusUnprocessableEntity, err)
			return
		}
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteJournalIssue(c *gin.Context) {
	req := &issueRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.RemoveIssueFromJournal(c.Request.Context(), c.Param("id"), string(req.Issue)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// patchJournalAOP sets the ahead of print bundle of a journal. Setting the
// current one again is not an error, but setting one of its issues is
// unprocessable.
func (s *Server) patchJournalAOP(c *gin.Context) {
	id := c.Param("id")
	req := &aopRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	err := s.handlers.SetAheadOfPrintBundleInJournal(ctx, id, req.AOP)
	switch {
	case err == nil:
	case goerrors.Is(err, journal.ErrAheadOfPrintAlreadySet):
		logging.From(ctx).Infof("skipping ahead of print %s of %s: %v", req.AOP, id, err)
	case goerrors.Is(err, journal.ErrAheadOfPrintIsIssue):
		abortWithStatus(c, http.StatusUnprocessableEntity, err)
		return
	default:
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteJournalAOP(c *gin.Context) {
	if err := s.handlers.RemoveAheadOfPrintBundleFromJournal(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
