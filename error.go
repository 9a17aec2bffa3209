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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// An ErrorItem is one entry of an error response's "errors" list. Items
// carry the machine-readable classification (domain and reason) and, for
// validation failures, the location of the offending input.
type ErrorItem struct {
	Domain       string `json:"domain,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message"`
	LocationType string `json:"locationType,omitempty"`
	Location     string `json:"location,omitempty"`
}

// String renders the item compactly, e.g.
// "global/required: Required (parameter resource.longUrl)". Absent
// fields are skipped rather than rendered empty.
func (i ErrorItem) String() string {
	var sb strings.Builder
	if i.Domain != "" {
		sb.WriteString(i.Domain)
	}
	if i.Reason != "" {
		if sb.Len() > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(i.Reason)
	}
	if sb.Len() > 0 {
		sb.WriteString(": ")
	}
	sb.WriteString(i.Message)
	if i.Location != "" {
		sb.WriteString(" (")
		if i.LocationType != "" {
			sb.WriteString(i.LocationType)
			sb.WriteByte(' ')
		}
		sb.WriteString(i.Location)
		sb.WriteByte(')')
	}
	return sb.String()
}

// An APIError is an error the remote service reported in the body of an
// otherwise well-formed response. It's distinct from
// *MalformedEnvelopeError (the body couldn't be read at all) and from
// *SchemaMismatchError (the discovery document disagreed with this
// package): an APIError means the exchange worked and the service said
// no.
//
// Use AsAPIError (or errors.As) to recover the structured form from a
// returned error.
type APIError struct {
	code    int
	message string
	items   []ErrorItem
}

// NewAPIError constructs an *APIError. It's exported for tests and for
// callers that replay recorded service errors; responses decoded by a
// Service produce these automatically.
func NewAPIError(code int, message string, items ...ErrorItem) *APIError {
	return &APIError{code: code, message: message, items: items}
}

// Code returns the numeric error code the service reported. Services
// conventionally use HTTP status numbers, but nothing guarantees that.
func (e *APIError) Code() int { return e.code }

// Message returns the service's top-level error message.
func (e *APIError) Message() string { return e.message }

// Errors returns the structured error items. The caller may inspect but
// shouldn't retain or mutate the returned slice across calls.
func (e *APIError) Errors() []ErrorItem { return e.items }

// Error implements error. The rendering includes every item's location,
// so a single log line is enough to find the offending parameter:
//
//	api error 400: Required [global/required: Required (parameter resource.longUrl)]
func (e *APIError) Error() string {
	text := fmt.Sprintf("api error %d: %s", e.code, e.message)
	if len(e.items) == 0 {
		return text
	}
	parts := make([]string, len(e.items))
	for i, item := range e.items {
		parts[i] = item.String()
	}
	return text + " [" + strings.Join(parts, "; ") + "]"
}

// AsAPIError unwraps err and returns the *APIError within, if any. The
// ok result reports whether one was found.
func AsAPIError(err error) (*APIError, bool) {
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError, true
	}
	return nil, false
}

// wireError is the shape of the "error" value on the wire. Both protocol
// versions share it.
type wireError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Errors  []ErrorItem `json:"errors"`
}

func (e *wireError) asAPIError() *APIError {
	return &APIError{code: e.Code, message: e.Message, items: e.Errors}
}

// translateError converts the raw "error" value of an envelope into an
// *APIError. A value that doesn't decode as an error object is an
// envelope defect, not a service error, and fails accordingly. A JSON
// null decodes to an empty APIError: the service signaled failure but
// said nothing about it.
func translateError(raw json.RawMessage) (*APIError, error) {
	var wire wireError
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, newMalformedEnvelope(err, "parse %q value", envelopeKeyError)
	}
	return wire.asAPIError(), nil
}

// A MalformedEnvelopeError reports a response body that couldn't be read
// as the negotiated envelope shape at all: not valid JSON, or (for the
// legacy convention) JSON missing both of the keys the convention
// requires. Unwrap exposes the underlying parse error when there is one.
type MalformedEnvelopeError struct {
	reason string
	cause  error
}

func newMalformedEnvelope(cause error, template string, args ...any) *MalformedEnvelopeError {
	return &MalformedEnvelopeError{
		reason: fmt.Sprintf(template, args...),
		cause:  cause,
	}
}

// Error implements error.
func (e *MalformedEnvelopeError) Error() string {
	if e.cause == nil {
		return "malformed envelope: " + e.reason
	}
	return "malformed envelope: " + e.reason + ": " + e.cause.Error()
}

// Unwrap returns the underlying cause, if any.
func (e *MalformedEnvelopeError) Unwrap() error { return e.cause }

// A SchemaMismatchError reports a discovery document whose metadata
// doesn't have the shape this package understands, e.g. a "features" key
// holding a string instead of a list. It's detected when the Service is
// constructed, never while processing payloads.
type SchemaMismatchError struct {
	cause error
}

// Error implements error.
func (e *SchemaMismatchError) Error() string {
	return "descriptor schema mismatch: " + e.cause.Error()
}

// Unwrap returns the schema coercion error describing the offending key.
func (e *SchemaMismatchError) Unwrap() error { return e.cause }
