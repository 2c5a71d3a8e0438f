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
	goerrors "errors"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/server/backend/sync"
	"github.com/scieloorg/kernel/server/session"
)

// Asset is an asset of a document and the URL of its current version.
type Asset struct {
	ID  string `json:"asset_id"`
	URL string `json:"asset_url"`
}

// Rendition is a derived artifact of a document, e.g. a PDF.
type Rendition struct {
	Filename  string `json:"filename"`
	DataURL   string `json:"data_url"`
	MimeType  string `json:"mimetype"`
	Lang      string `json:"lang"`
	SizeBytes int64  `json:"size_bytes"`
}

// registration is the strategy of a document registration: where the
// document comes from, how it is stored and what is notified.
type registration struct {
	name        string
	getOrCreate func(ctx context.Context, s *session.Session, id string) (*document.Document, error)
	persist     func(ctx context.Context, s *session.Session, doc *document.Document) error
	event       events.Type
}

var registerDocument = registration{
	name: "RegisterDocument",
	getOrCreate: func(_ context.Context, s *session.Session, id string) (*document.Document, error) {
		return document.New(id, s.Clock), nil
	},
	persist: func(ctx context.Context, s *session.Session, doc *document.Document) error {
		return s.Documents.Add(ctx, doc)
	},
	event: events.DocumentRegistered,
}

var registerDocumentVersion = registration{
	name: "RegisterDocumentVersion",
	getOrCreate: func(ctx context.Context, s *session.Session, id string) (*document.Document, error) {
		return s.Documents.Fetch(ctx, id)
	},
	persist: func(ctx context.Context, s *session.Session, doc *document.Document) error {
		return s.Documents.Update(ctx, doc)
	},
	event: events.DocumentVersionRegistered,
}

// register appends a version pointing to dataURL with the given assets.
// Assets whose URL did not change are skipped.
func (h *Handlers) register(
	ctx context.Context,
	r registration,
	id, dataURL string,
	assets []Asset,
) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}
	assetIDs := make([]string, 0, len(assets))
	for _, asset := range assets {
		assetIDs = append(assetIDs, asset.ID)
	}

	return h.execute(ctx, r.name, sync.NewKey(string(types.EntityDocument), id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		doc, err := r.getOrCreate(ctx, s, id)
		if err != nil {
			return "", nil, err
		}

		if err := doc.NewVersion(dataURL, assetIDs...); err != nil {
			return "", nil, err
		}
		for _, asset := range assets {
			err := doc.NewAssetVersion(asset.ID, asset.URL)
			if err != nil && !goerrors.Is(err, types.ErrVersionAlreadySet) {
				return "", nil, err
			}
		}

		if err := r.persist(ctx, s, doc); err != nil {
			return "", nil, err
		}

		return r.event, session.Payload{
			"id":                id,
			"data_url":          dataURL,
			"assets":            assets,
			session.DocumentKey: doc.Manifest(),
		}, nil
	})
}

// RegisterDocument registers a new document. It fails with AlreadyExists
// if the id is taken.
func (h *Handlers) RegisterDocument(ctx context.Context, id, dataURL string, assets []Asset) error {
	return h.register(ctx, registerDocument, id, dataURL, assets)
}

// RegisterDocumentVersion registers a new version of a document.
func (h *Handlers) RegisterDocumentVersion(ctx context.Context, id, dataURL string, assets []Asset) error {
	return h.register(ctx, registerDocumentVersion, id, dataURL, assets)
}

// RegisterAssetVersion registers a new version of an asset declared by the
// latest version of a document.
func (h *Handlers) RegisterAssetVersion(ctx context.Context, id, assetID, assetURL string) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}

	return h.execute(ctx, "RegisterAssetVersion", sync.NewKey(string(types.EntityDocument), id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if err := doc.NewAssetVersion(assetID, assetURL); err != nil {
			return "", nil, err
		}
		if err := s.Documents.Update(ctx, doc); err != nil {
			return "", nil, err
		}

		return events.AssetVersionRegistered, session.Payload{
			"id":                id,
			"asset_id":          assetID,
			"asset_url":         assetURL,
			session.DocumentKey: doc.Manifest(),
		}, nil
	})
}

// RegisterRenditionVersion registers a rendition of the latest version of a
// document. It fails with VersionAlreadySet if the rendition is already the
// current one of its kind.
func (h *Handlers) RegisterRenditionVersion(ctx context.Context, id string, r Rendition) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}

	return h.execute(ctx, "RegisterRenditionVersion", sync.NewKey(string(types.EntityDocument), id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if err := doc.NewRenditionVersion(r.Filename, r.DataURL, r.MimeType, r.Lang, r.SizeBytes); err != nil {
			return "", nil, err
		}
		if err := s.Documents.Update(ctx, doc); err != nil {
			return "", nil, err
		}

		return events.DocumentRenditionRegistered, session.Payload{
			"id":                id,
			"filename":          r.Filename,
			"data_url":          r.DataURL,
			"mimetype":          r.MimeType,
			"lang":              r.Lang,
			"size_bytes":        r.SizeBytes,
			session.DocumentKey: doc.Manifest(),
		}, nil
	})
}

// DeleteDocument tombstones a document. It fails with VersionAlreadySet if
// the document is already deleted.
func (h *Handlers) DeleteDocument(ctx context.Context, id string) error {
	if err := types.ValidateIDs(id); err != nil {
		return err
	}

	return h.execute(ctx, "DeleteDocument", sync.NewKey(string(types.EntityDocument), id), func(
		ctx context.Context,
		s *session.Session,
	) (events.Type, session.Payload, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if err := doc.Delete(); err != nil {
			return "", nil, err
		}
		if err := s.Documents.Update(ctx, doc); err != nil {
			return "", nil, err
		}

		return events.DocumentDeleted, session.Payload{
			"id":                id,
			session.DocumentKey: doc.Manifest(),
		}, nil
	})
}

// FetchDocumentData returns the XML bytes of the selected version.
func (h *Handlers) FetchDocumentData(ctx context.Context, id string, sel document.Selector) ([]byte, error) {
	return query(ctx, h, "FetchDocumentData", func(ctx context.Context, s *session.Session) ([]byte, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		return doc.Data(ctx, h.fetcher, sel)
	})
}

// FetchDocumentManifest returns the full history of a document. The
// manifest of a deleted document is still returned.
func (h *Handlers) FetchDocumentManifest(ctx context.Context, id string) (document.Manifest, error) {
	return query(ctx, h, "FetchDocumentManifest", func(ctx context.Context, s *session.Session) (document.Manifest, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return document.Manifest{}, err
		}
		return doc.Manifest(), nil
	})
}

// FetchAssetsList returns the selected version of a document with its assets
// resolved to their URLs.
func (h *Handlers) FetchAssetsList(ctx context.Context, id string, sel document.Selector) (*document.View, error) {
	return query(ctx, h, "FetchAssetsList", func(ctx context.Context, s *session.Session) (*document.View, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		return doc.Resolve(sel)
	})
}

// FetchDocumentRenditions returns the current renditions of the selected
// version.
func (h *Handlers) FetchDocumentRenditions(
	ctx context.Context,
	id string,
	sel document.Selector,
) ([]document.Rendition, error) {
	return query(ctx, h, "FetchDocumentRenditions", func(ctx context.Context, s *session.Session) ([]document.Rendition, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		return doc.Renditions(sel)
	})
}

// DiffDocumentVersions returns the unified diff between the version current
// at fromAt and the one current at toAt, or the latest if toAt is empty.
func (h *Handlers) DiffDocumentVersions(ctx context.Context, id, fromAt, toAt string) (string, error) {
	return query(ctx, h, "DiffDocumentVersions", func(ctx context.Context, s *session.Session) (string, error) {
		doc, err := s.Documents.Fetch(ctx, id)
		if err != nil {
			return "", err
		}
		return doc.Diff(ctx, h.fetcher, document.At(fromAt), document.At(toAt))
	})
}
