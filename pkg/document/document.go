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

// Package document provides the Document aggregate: an XML article whose
// every data, asset and rendition change is kept as an append-only history.
package document

import (
	"context"
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/pkg/clock"
)

// Fetcher fetches the bytes stored at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Selector selects a version of a document. If At is given, the latest
// version registered at or before it is selected, otherwise the version at
// Index, where negative indexes count from the end.
type Selector struct {
	Index int
	At    string
}

// Latest returns the selector of the latest version.
func Latest() Selector {
	return Selector{Index: -1}
}

// At returns the selector of the version current at the given timestamp. An
// empty timestamp selects the latest version.
func At(timestamp string) Selector {
	return Selector{Index: -1, At: timestamp}
}

// Document is the aggregate of an article.
type Document struct {
	manifest Manifest
	clock    clock.Clock
	revision int64
}

// New creates a new document without versions.
func New(id string, clk clock.Clock) *Document {
	return &Document{
		manifest: Manifest{ID: id, Versions: []Version{}},
		clock:    clk,
	}
}

// FromManifest restores a document from its manifest.
func FromManifest(m Manifest, clk clock.Clock) *Document {
	return &Document{
		manifest: m.DeepCopy(),
		clock:    clk,
	}
}

// ID returns the id of this document.
func (d *Document) ID() string {
	return d.manifest.ID
}

// Revision returns the stored revision this document was read at.
func (d *Document) Revision() int64 {
	return d.revision
}

// SetRevision sets the stored revision of this document.
func (d *Document) SetRevision(revision int64) {
	d.revision = revision
}

// Manifest returns a copy of the full history of this document.
func (d *Document) Manifest() Manifest {
	return d.manifest.DeepCopy()
}

// IsDeleted returns whether this document is tombstoned.
func (d *Document) IsDeleted() bool {
	latest := d.latest()
	return latest != nil && latest.Deleted
}

func (d *Document) latest() *Version {
	if len(d.manifest.Versions) == 0 {
		return nil
	}
	return &d.manifest.Versions[len(d.manifest.Versions)-1]
}

// liveLatest returns the latest version if the document can be changed.
func (d *Document) liveLatest() (*Version, error) {
	latest := d.latest()
	if latest == nil {
		return nil, fmt.Errorf("%s: %w", d.ID(), ErrNoVersions)
	}
	if latest.Deleted {
		return nil, fmt.Errorf("%s: %w", d.ID(), ErrDocumentDeleted)
	}
	return latest, nil
}

// NewVersion appends a version pointing to the given data. The asset slots
// of the previous version carry over with their most recent entry, and the
// given asset ids are declared with an empty history.
func (d *Document) NewVersion(dataURL string, assetIDs ...string) error {
	if d.IsDeleted() {
		return fmt.Errorf("%s: %w", d.ID(), ErrDocumentDeleted)
	}

	assets := make(map[string][]AssetVersion)
	if latest := d.latest(); latest != nil {
		for id, history := range latest.Assets {
			if len(history) == 0 {
				assets[id] = []AssetVersion{}
				continue
			}
			assets[id] = []AssetVersion{history[len(history)-1]}
		}
	}
	for _, id := range assetIDs {
		if _, ok := assets[id]; !ok {
			assets[id] = []AssetVersion{}
		}
	}

	d.manifest.Versions = append(d.manifest.Versions, Version{
		DataURL:    dataURL,
		Assets:     assets,
		Renditions: []Rendition{},
		Timestamp:  clock.Now(d.clock),
	})
	return nil
}

// NewAssetVersion appends an entry to the history of the given asset within
// the latest version. Registering the URL the asset already points to fails
// with ErrVersionAlreadySet.
func (d *Document) NewAssetVersion(assetID, url string) error {
	latest, err := d.liveLatest()
	if err != nil {
		return err
	}

	history, ok := latest.Assets[assetID]
	if !ok {
		return fmt.Errorf("cannot add version for %q in %s: %w", assetID, d.ID(), ErrAssetNotDeclared)
	}
	if len(history) > 0 && history[len(history)-1].URL == url {
		return fmt.Errorf("cannot add version for %q in %s: %w", assetID, d.ID(), types.ErrVersionAlreadySet)
	}

	latest.Assets[assetID] = append(history, AssetVersion{
		URL:       url,
		Timestamp: clock.Now(d.clock),
	})
	return nil
}

// NewRenditionVersion appends a rendition to the latest version. Submitting
// again the rendition that is current for its filename, mimetype and lang
// fails with ErrVersionAlreadySet.
func (d *Document) NewRenditionVersion(
	filename, dataURL, mimetype, lang string,
	sizeBytes int64,
) error {
	latest, err := d.liveLatest()
	if err != nil {
		return err
	}

	rendition := Rendition{
		Filename:  filename,
		DataURL:   dataURL,
		MimeType:  mimetype,
		Lang:      lang,
		SizeBytes: sizeBytes,
	}
	for i := len(latest.Renditions) - 1; i >= 0; i-- {
		current := latest.Renditions[i]
		if current.key() != rendition.key() {
			continue
		}
		if current.sameAs(rendition) {
			return fmt.Errorf(
				"cannot add rendition %q (%s, %s) to %s: %w",
				filename, mimetype, lang, d.ID(), types.ErrVersionAlreadySet,
			)
		}
		break
	}

	rendition.Timestamp = clock.Now(d.clock)
	latest.Renditions = append(latest.Renditions, rendition)
	return nil
}

// Delete tombstones this document by appending a deleted version.
func (d *Document) Delete() error {
	latest := d.latest()
	if latest == nil {
		return fmt.Errorf("%s: %w", d.ID(), ErrNoVersions)
	}
	if latest.Deleted {
		return fmt.Errorf("%s: %w", d.ID(), ErrDocumentAlreadyDeleted)
	}

	d.manifest.Versions = append(d.manifest.Versions, Version{
		Assets:     map[string][]AssetVersion{},
		Renditions: []Rendition{},
		Timestamp:  clock.Now(d.clock),
		Deleted:    true,
	})
	return nil
}

// Version returns the view of the version at the given index. Negative
// indexes count from the end, -1 being the latest version.
func (d *Document) Version(index int) (*View, error) {
	n := len(d.manifest.Versions)
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("version %d of %s: %w", index, d.ID(), types.ErrDoesNotExist)
	}

	v := d.manifest.Versions[i]
	if v.Deleted {
		return nil, fmt.Errorf("version %d of %s: %w", index, d.ID(), ErrDocumentDeleted)
	}
	return viewOf(v, ""), nil
}

// VersionAt returns the view of the latest version registered at or before
// the given timestamp. Assets and renditions are resolved as they were at
// that time.
func (d *Document) VersionAt(timestamp string) (*View, error) {
	t, err := clock.Parse(timestamp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), types.ErrInvalidArgument)
	}
	at := clock.Format(t)

	selected := -1
	for i, v := range d.manifest.Versions {
		if v.Timestamp <= at {
			selected = i
		}
	}
	if selected < 0 {
		return nil, fmt.Errorf("missing version for timestamp %q in %s: %w", timestamp, d.ID(), types.ErrDoesNotExist)
	}

	v := d.manifest.Versions[selected]
	if v.Deleted {
		return nil, fmt.Errorf("version at %q of %s: %w", timestamp, d.ID(), ErrDocumentDeleted)
	}
	return viewOf(v, at), nil
}

// Resolve returns the view of the selected version.
func (d *Document) Resolve(sel Selector) (*View, error) {
	if sel.At != "" {
		return d.VersionAt(sel.At)
	}
	return d.Version(sel.Index)
}

// Data fetches the XML bytes of the selected version.
func (d *Document) Data(ctx context.Context, f Fetcher, sel Selector) ([]byte, error) {
	if d.IsDeleted() {
		return nil, fmt.Errorf("%s: %w", d.ID(), ErrDocumentDeleted)
	}

	view, err := d.Resolve(sel)
	if err != nil {
		return nil, err
	}

	data, err := f.Fetch(ctx, view.DataURL)
	if err != nil {
		return nil, fmt.Errorf("fetch data of %s: %w", d.ID(), err)
	}
	return data, nil
}

// Renditions returns the current renditions of the selected version.
func (d *Document) Renditions(sel Selector) ([]Rendition, error) {
	if d.IsDeleted() {
		return nil, fmt.Errorf("%s: %w", d.ID(), ErrDocumentDeleted)
	}

	view, err := d.Resolve(sel)
	if err != nil {
		return nil, err
	}
	return view.Renditions, nil
}

// Diff returns the unified diff between the data of the two selected
// versions.
func (d *Document) Diff(ctx context.Context, f Fetcher, from, to Selector) (string, error) {
	if d.IsDeleted() {
		return "", fmt.Errorf("%s: %w", d.ID(), ErrDocumentDeleted)
	}

	fromView, err := d.Resolve(from)
	if err != nil {
		return "", err
	}
	toView, err := d.Resolve(to)
	if err != nil {
		return "", err
	}

	fromData, err := f.Fetch(ctx, fromView.DataURL)
	if err != nil {
		return "", fmt.Errorf("fetch data of %s: %w", d.ID(), err)
	}
	toData, err := f.Fetch(ctx, toView.DataURL)
	if err != nil {
		return "", fmt.Errorf("fetch data of %s: %w", d.ID(), err)
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(fromData)),
		B:        difflib.SplitLines(string(toData)),
		FromFile: fmt.Sprintf("%s@%s", d.ID(), fromView.Timestamp),
		ToFile:   fmt.Sprintf("%s@%s", d.ID(), toView.Timestamp),
		Context:  3,
	})
}

// viewOf resolves the given version. An empty at resolves every asset and
// rendition to its most recent entry.
func viewOf(v Version, at string) *View {
	ids := make([]string, 0, len(v.Assets))
	for id := range v.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	assets := make(map[string]string, len(ids))
	for _, id := range ids {
		url := ""
		for _, entry := range v.Assets[id] {
			if at != "" && entry.Timestamp > at {
				break
			}
			url = entry.URL
		}
		assets[id] = url
	}

	var renditions []Rendition
	position := make(map[renditionKey]int)
	for _, r := range v.Renditions {
		if at != "" && r.Timestamp > at {
			break
		}
		if i, ok := position[r.key()]; ok {
			renditions[i] = r
			continue
		}
		position[r.key()] = len(renditions)
		renditions = append(renditions, r)
	}
	if renditions == nil {
		renditions = []Rendition{}
	}

	return &View{
		DataURL:    v.DataURL,
		Assets:     assets,
		Renditions: renditions,
		Timestamp:  v.Timestamp,
	}
}

// SortedAssetIDs returns the asset ids of the view in lexical order.
func (v *View) SortedAssetIDs() []string {
	ids := make([]string, 0, len(v.Assets))
	for id := range v.Assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
