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
)

type bundleDocumentRequest struct {
	Document reference `json:"id" validate:"required"`
	Index    *int      `json:"index"`
}

// putBundle creates a bundle, or updates the metadata of an existing one.
func (s *Server) putBundle(c *gin.Context) {
	id := c.Param("id")
	values, err := bindMetadata(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	err = s.handlers.CreateDocumentsBundle(ctx, id, nil, values)
	if err == nil {
		c.Status(http.StatusCreated)
		return
	}
	if !goerrors.Is(err, types.ErrAlreadyExists) {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.UpdateDocumentsBundleMetadata(ctx, id, values); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getBundle(c *gin.Context) {
	manifest, err := s.handlers.FetchDocumentsBundle(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, manifest)
}

func (s *Server) patchBundle(c *gin.Context) {
	values, err := bindMetadata(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.UpdateDocumentsBundleMetadata(c.Request.Context(), c.Param("id"), values); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// patchBundleDocuments appends a document to a bundle, or inserts it at the
// given index.
func (s *Server) patchBundleDocuments(c *gin.Context) {
	req := &bundleDocumentRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.Index != nil {
		err = s.handlers.InsertDocumentToDocumentsBundle(ctx, c.Param("id"), *req.Index, string(req.Document))
	} else {
		err = s.handlers.AddDocumentToDocumentsBundle(ctx, c.Param("id"), string(req.Document))
	}
	if err != nil {
		if goerrors.Is(err, types.ErrAlreadyExists) {
			abortWithStatus(c, http.StatusUnprocessableEntity, err)
			return
		}
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// putBundleDocuments replaces the documents of a bundle. A list holding the
// same document twice is unprocessable.
func (s *Server) putBundleDocuments(c *gin.Context) {
	items, err := bindJSONList[referenceItem](c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.UpdateDocumentsInDocumentsBundle(c.Request.Context(), c.Param("id"), idsOf(items)); err != nil {
		if goerrors.Is(err, types.ErrAlreadyExists) {
			abortWithStatus(c, http.StatusUnprocessableEntity, err)
			return
		}
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
