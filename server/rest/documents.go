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
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/server/commands"
	"github.com/scieloorg/kernel/server/logging"
)

type assetRequest struct {
	AssetID  string `json:"asset_id" validate:"required"`
	AssetURL string `json:"asset_url" validate:"required,url"`
}

type registerDocumentRequest struct {
	Data   string         `json:"data" validate:"required,url"`
	Assets []assetRequest `json:"assets" validate:"dive"`
}

type assetVersionRequest struct {
	AssetURL string `json:"asset_url" validate:"required,url"`
}

type renditionRequest struct {
	Filename  string `json:"filename" validate:"required"`
	DataURL   string `json:"data_url" validate:"required,url"`
	MimeType  string `json:"mimetype" validate:"required,mimetype"`
	Lang      string `json:"lang" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"gte=0"`
}

type assetResponse struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

type assetsListResponse struct {
	Timestamp string          `json:"timestamp"`
	DataURL   string          `json:"data_url"`
	Assets    []assetResponse `json:"assets"`
}

// selectorOf returns the version selected by the "when" query of the
// request, or the latest one.
func selectorOf(c *gin.Context) document.Selector {
	if when := c.Query("when"); when != "" {
		return document.At(when)
	}
	return document.Latest()
}

// putDocument registers a document, or a new version of it if it already
// exists. Submitting the current version again is not an error.
func (s *Server) putDocument(c *gin.Context) {
	id := c.Param("id")
	req := &registerDocumentRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	assets := make([]commands.Asset, 0, len(req.Assets))
	for _, asset := range req.Assets {
		assets = append(assets, commands.Asset{ID: asset.AssetID, URL: asset.AssetURL})
	}

	ctx := c.Request.Context()
	err := s.handlers.RegisterDocument(ctx, id, req.Data, assets)
	if err == nil {
		c.Status(http.StatusCreated)
		return
	}
	if !goerrors.Is(err, types.ErrAlreadyExists) {
		abortWithError(c, err)
		return
	}

	if err := s.handlers.RegisterDocumentVersion(ctx, id, req.Data, assets); err != nil {
		if !goerrors.Is(err, types.ErrVersionAlreadySet) {
			abortWithError(c, err)
			return
		}
		logging.From(ctx).Infof("skipping version of %s: %v", id, err)
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getDocument(c *gin.Context) {
	data, err := s.handlers.FetchDocumentData(c.Request.Context(), c.Param("id"), selectorOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/xml", data)
}

// deleteDocument tombstones a document. Deleting it again is not an error.
func (s *Server) deleteDocument(c *gin.Context) {
	err := s.handlers.DeleteDocument(c.Request.Context(), c.Param("id"))
	if err != nil && !goerrors.Is(err, document.ErrDocumentAlreadyDeleted) {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) getDocumentManifest(c *gin.Context) {
	manifest, err := s.handlers.FetchDocumentManifest(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, manifest)
}

func (s *Server) getAssetsList(c *gin.Context) {
	view, err := s.handlers.FetchAssetsList(c.Request.Context(), c.Param("id"), selectorOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := assetsListResponse{
		Timestamp: view.Timestamp,
		DataURL:   view.DataURL,
		Assets:    make([]assetResponse, 0, len(view.Assets)),
	}
	for _, assetID := range view.SortedAssetIDs() {
		resp.Assets = append(resp.Assets, assetResponse{
			Slug: slugify(assetID),
			ID:   assetID,
			URL:  view.Assets[assetID],
		})
	}

	c.JSON(http.StatusOK, resp)
}

// putAsset registers a version of an asset of the latest version, named
// by its id or by the slug of its id.
func (s *Server) putAsset(c *gin.Context) {
	id := c.Param("id")
	req := &assetVersionRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	view, err := s.handlers.FetchAssetsList(ctx, id, document.Latest())
	if err != nil {
		abortWithError(c, err)
		return
	}

	assetID, ok := resolveAsset(view, c.Param("asset"))
	if !ok {
		abortWithError(c, fmt.Errorf("asset %q of %s: %w", c.Param("asset"), id, types.ErrDoesNotExist))
		return
	}

	if err := s.handlers.RegisterAssetVersion(ctx, id, assetID, req.AssetURL); err != nil {
		if !goerrors.Is(err, types.ErrVersionAlreadySet) {
			abortWithError(c, err)
			return
		}
		logging.From(ctx).Infof("skipping version of %s/assets/%s: %v", id, assetID, err)
	}
	c.Status(http.StatusNoContent)
}

func resolveAsset(view *document.View, name string) (string, bool) {
	if _, ok := view.Assets[name]; ok {
		return name, true
	}
	for _, assetID := range view.SortedAssetIDs() {
		if slugify(assetID) == name {
			return assetID, true
		}
	}
	return "", false
}

func (s *Server) getRenditions(c *gin.Context) {
	renditions, err := s.handlers.FetchDocumentRenditions(c.Request.Context(), c.Param("id"), selectorOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, renditions)
}

// putRendition registers a rendition of the latest version. Submitting the
// current rendition again is not an error.
func (s *Server) putRendition(c *gin.Context) {
	id := c.Param("id")
	req := &renditionRequest{}
	if err := bindJSON(c, req); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := s.handlers.RegisterRenditionVersion(ctx, id, commands.Rendition{
		Filename:  req.Filename,
		DataURL:   req.DataURL,
		MimeType:  req.MimeType,
		Lang:      req.Lang,
		SizeBytes: req.SizeBytes,
	}); err != nil {
		if !goerrors.Is(err, types.ErrVersionAlreadySet) {
			abortWithError(c, err)
			return
		}
		logging.From(ctx).Infof("skipping rendition %s of %s: %v", req.Filename, id, err)
	}
	c.Status(http.StatusNoContent)
}

// getDiff compares the version current at from_when with the one current
// at to_when, or the latest one.
func (s *Server) getDiff(c *gin.Context) {
	fromWhen := c.Query("from_when")
	if fromWhen == "" {
		abortWithError(c, fmt.Errorf("missing from_when: %w", types.ErrInvalidArgument))
		return
	}

	diff, err := s.handlers.DiffDocumentVersions(c.Request.Context(), c.Param("id"), fromWhen, c.Query("to_when"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.String(http.StatusOK, diff)
}
