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

package document

// AssetVersion is one entry of the history of an asset.
type AssetVersion struct {
	URL       string `json:"asset_url" bson:"asset_url"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// Rendition describes a derived artifact of a version, e.g. a PDF.
type Rendition struct {
	Filename  string `json:"filename" bson:"filename"`
	DataURL   string `json:"data_url" bson:"data_url"`
	MimeType  string `json:"mimetype" bson:"mimetype"`
	Lang      string `json:"lang" bson:"lang"`
	SizeBytes int64  `json:"size_bytes" bson:"size_bytes"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// key returns the key under which renditions replace each other.
func (r Rendition) key() renditionKey {
	return renditionKey{filename: r.Filename, mimetype: r.MimeType, lang: r.Lang}
}

// sameAs returns whether the given rendition carries the same payload,
// ignoring when it was registered.
func (r Rendition) sameAs(other Rendition) bool {
	return r.Filename == other.Filename &&
		r.DataURL == other.DataURL &&
		r.MimeType == other.MimeType &&
		r.Lang == other.Lang &&
		r.SizeBytes == other.SizeBytes
}

type renditionKey struct {
	filename string
	mimetype string
	lang     string
}

// Version is one entry of the history of a document.
type Version struct {
	DataURL    string                    `json:"data_url" bson:"data_url"`
	Assets     map[string][]AssetVersion `json:"assets" bson:"assets"`
	Renditions []Rendition               `json:"renditions" bson:"renditions"`
	Timestamp  string                    `json:"timestamp" bson:"timestamp"`
	Deleted    bool                      `json:"deleted,omitempty" bson:"deleted,omitempty"`
}

// DeepCopy returns a copy of this version.
func (v Version) DeepCopy() Version {
	assets := make(map[string][]AssetVersion, len(v.Assets))
	for id, history := range v.Assets {
		clone := make([]AssetVersion, len(history))
		copy(clone, history)
		assets[id] = clone
	}

	renditions := make([]Rendition, len(v.Renditions))
	copy(renditions, v.Renditions)

	return Version{
		DataURL:    v.DataURL,
		Assets:     assets,
		Renditions: renditions,
		Timestamp:  v.Timestamp,
		Deleted:    v.Deleted,
	}
}

// Manifest is the full history of a document.
type Manifest struct {
	ID       string    `json:"id" bson:"id"`
	Versions []Version `json:"versions" bson:"versions"`
}

// DeepCopy returns a copy of this manifest.
func (m Manifest) DeepCopy() Manifest {
	versions := make([]Version, 0, len(m.Versions))
	for _, v := range m.Versions {
		versions = append(versions, v.DeepCopy())
	}

	return Manifest{
		ID:       m.ID,
		Versions: versions,
	}
}

// View is a single version of a document as seen at some point in time:
// every asset resolves to one URL, and only the latest rendition of each
// kind is listed.
type View struct {
	DataURL    string            `json:"data_url"`
	Assets     map[string]string `json:"assets"`
	Renditions []Rendition       `json:"renditions"`
	Timestamp  string            `json:"timestamp"`
}
