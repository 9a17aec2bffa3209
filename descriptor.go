// Copyright 2024-2026 The Disco Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package disco

import (
	"github.com/juju/schema"
)

// descriptorChecker coerces the loosely-typed top level of a discovery
// document fragment. Every key is optional; keys this package doesn't
// read (methods, resources, schemas, ...) pass through unchecked.
var descriptorChecker = schema.FieldMap(
	schema.Fields{
		"kind":              schema.String(),
		"id":                schema.String(),
		"name":              schema.String(),
		"version":           schema.String(),
		"title":             schema.String(),
		"description":       schema.String(),
		"documentationLink": schema.String(),
		"protocol":          schema.String(),
		"basePath":          schema.String(),
		"rootUrl":           schema.String(),
		"revision":          schema.String(),
		"features":          schema.List(schema.String()),
		"labels":            schema.List(schema.String()),
	},
	schema.Defaults{
		"kind":              schema.Omit,
		"id":                schema.Omit,
		"name":              schema.Omit,
		"version":           schema.Omit,
		"title":             schema.Omit,
		"description":       schema.Omit,
		"documentationLink": schema.Omit,
		"protocol":          schema.Omit,
		"basePath":          schema.Omit,
		"rootUrl":           schema.Omit,
		"revision":          schema.Omit,
		"features":          schema.Omit,
		"labels":            schema.Omit,
	},
)

// A Descriptor exposes typed, defaulted reads over the loosely-typed
// metadata of a discovery document. Defaulting and shape checks happen
// once, in NewDescriptor; afterwards every accessor is a pure read, so a
// Descriptor is immutable and safe for concurrent use.
//
// Absent keys are always valid: string accessors return "" and sequence
// accessors return an empty (never nil) slice, so callers can iterate
// without a presence check.
type Descriptor struct {
	kind              string
	id                string
	name              string
	version           string
	title             string
	description       string
	documentationLink string
	protocol          string
	basePath          string
	rootURL           string
	revision          string
	features          []Feature
	labels            []string
}

// NewDescriptor builds a Descriptor from the raw mapping a discovery
// document loader produced. A nil document behaves like an empty one.
//
// Only keys that are present but carry an incompatible shape (say, a
// string where a list of strings belongs) fail, with a
// *SchemaMismatchError naming the offending key.
func NewDescriptor(document map[string]any) (*Descriptor, error) {
	if document == nil {
		document = map[string]any{}
	}
	coerced, err := descriptorChecker.Coerce(document, nil)
	if err != nil {
		return nil, &SchemaMismatchError{cause: err}
	}
	fields := coerced.(map[string]interface{})
	return &Descriptor{
		kind:              stringField(fields, "kind"),
		id:                stringField(fields, "id"),
		name:              stringField(fields, "name"),
		version:           stringField(fields, "version"),
		title:             stringField(fields, "title"),
		description:       stringField(fields, "description"),
		documentationLink: stringField(fields, "documentationLink"),
		protocol:          stringField(fields, "protocol"),
		basePath:          stringField(fields, "basePath"),
		rootURL:           stringField(fields, "rootUrl"),
		revision:          stringField(fields, "revision"),
		features:          featureListField(fields, "features"),
		labels:            stringListField(fields, "labels"),
	}, nil
}

// Kind returns the document's kind tag, e.g. "discovery#restDescription".
func (d *Descriptor) Kind() string { return d.kind }

// ID returns the service identifier, e.g. "urlshortener:v1".
func (d *Descriptor) ID() string { return d.id }

// Name returns the service name the document declares.
func (d *Descriptor) Name() string { return d.name }

// Version returns the API version string the document declares.
func (d *Descriptor) Version() string { return d.version }

// Title returns the human-readable service title.
func (d *Descriptor) Title() string { return d.title }

// Description returns the human-readable service description.
func (d *Descriptor) Description() string { return d.description }

// DocumentationLink returns the URL of the service's reference docs.
func (d *Descriptor) DocumentationLink() string { return d.documentationLink }

// Protocol returns the transport protocol tag, e.g. "rest".
func (d *Descriptor) Protocol() string { return d.protocol }

// BasePath returns the relative base path for the service's methods.
func (d *Descriptor) BasePath() string { return d.basePath }

// RootURL returns the root URL all method paths are relative to.
func (d *Descriptor) RootURL() string { return d.rootURL }

// Revision returns the document revision stamp.
func (d *Descriptor) Revision() string { return d.revision }

// Features returns the protocol capability tags in declaration order.
// The slice is a copy; mutating it doesn't affect the Descriptor.
func (d *Descriptor) Features() []Feature {
	out := make([]Feature, len(d.features))
	copy(out, d.features)
	return out
}

// Labels returns the document's labels (e.g. "labs") in declaration
// order. The slice is a copy; mutating it doesn't affect the Descriptor.
func (d *Descriptor) Labels() []string {
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

func stringField(fields map[string]interface{}, key string) string {
	value, ok := fields[key]
	if !ok {
		return ""
	}
	return value.(string)
}

func stringListField(fields map[string]interface{}, key string) []string {
	out := make([]string, 0)
	value, ok := fields[key]
	if !ok {
		return out
	}
	for _, item := range value.([]interface{}) {
		out = append(out, item.(string))
	}
	return out
}

func featureListField(fields map[string]interface{}, key string) []Feature {
	out := make([]Feature, 0)
	value, ok := fields[key]
	if !ok {
		return out
	}
	for _, item := range value.([]interface{}) {
		out = append(out, Feature(item.(string)))
	}
	return out
}
