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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

const (
	envelopeKeyData  = "data"
	envelopeKeyError = "error"

	wireFormatNameDirect      = "direct"
	wireFormatNameDataWrapped = "data-wrapped"
)

// wireFormat is one envelope convention. A Service picks its wireFormat
// once, at construction, from the protocol version and feature set;
// nothing re-decides framing per call.
//
// decode splits a raw response into the payload body and, if the
// response is error-tagged, the raw "error" value. Exactly one of body
// and errValue is meaningful. encode frames an already-marshaled request
// payload; it works byte-for-byte so the codec's compact output survives
// untouched.
type wireFormat interface {
	name() string
	decode(raw []byte) (body, errValue json.RawMessage, err error)
	encode(payload []byte) []byte
}

// directFormat is the v1 convention: the payload sits at the top level
// of the body, and only a top-level "error" key marks a failure.
//
// There is no envelope to violate, so decoding never fails here: a
// non-object body (array, scalar, or garbage) passes through unchanged
// and any complaint about its shape belongs to the codec.
type directFormat struct{}

var _ wireFormat = (*directFormat)(nil)

func (*directFormat) name() string { return wireFormatNameDirect }

func (*directFormat) decode(raw []byte) (json.RawMessage, json.RawMessage, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return raw, nil, nil
	}
	if errValue, ok := keys[envelopeKeyError]; ok {
		return nil, errValue, nil
	}
	return raw, nil, nil
}

func (*directFormat) encode(payload []byte) []byte { return payload }

// dataWrappedFormat is the legacy v0.3 convention: every success is
// wrapped as {"data": ...} and every failure as {"error": ...}. Key
// presence is the whole contract, so {"error": null} is still an error
// response and {"data": null} is still a success.
type dataWrappedFormat struct{}

var _ wireFormat = (*dataWrappedFormat)(nil)

func (*dataWrappedFormat) name() string { return wireFormatNameDataWrapped }

func (*dataWrappedFormat) decode(raw []byte) (json.RawMessage, json.RawMessage, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, nil, newMalformedEnvelope(err, "parse legacy envelope")
	}
	if errValue, ok := keys[envelopeKeyError]; ok {
		// An "error" key wins even when a "data" key sits beside it.
		return nil, errValue, nil
	}
	body, ok := keys[envelopeKeyData]
	if !ok {
		return nil, nil, newMalformedEnvelope(
			nil,
			"legacy envelope has neither %q nor %q key",
			envelopeKeyData,
			envelopeKeyError,
		)
	}
	return body, nil, nil
}

func (*dataWrappedFormat) encode(payload []byte) []byte {
	framed := make([]byte, 0, len(payload)+len(`{"data":}`))
	framed = append(framed, `{"data":`...)
	framed = append(framed, payload...)
	framed = append(framed, '}')
	return framed
}

// wireFormatFor selects the envelope convention. The legacy feature flag
// wins: a document declaring v1 but carrying the legacy feature still
// gets data-wrapped framing, because the flag describes what the service
// actually emits.
func wireFormatFor(version ProtocolVersion, features featureSet) wireFormat {
	if version == ProtocolV0_3 || features.has(FeatureLegacyDataResponse) {
		return &dataWrappedFormat{}
	}
	return &directFormat{}
}

// readAll drains src into dst, enforcing the configured byte limit.
// readMaxBytes <= 0 means unlimited.
func readAll(dst *bytes.Buffer, src io.Reader, readMaxBytes int) error {
	limitReader := src
	if readMaxBytes > 0 && int64(readMaxBytes) < math.MaxInt64 {
		limitReader = io.LimitReader(src, int64(readMaxBytes)+1)
	}
	// ReadFrom ignores io.EOF, so any error here is real.
	bytesRead, err := dst.ReadFrom(limitReader)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if readMaxBytes > 0 && bytesRead > int64(readMaxBytes) {
		// Attempt to read to end in order to allow connection re-use.
		discardedBytes, discardErr := io.Copy(io.Discard, src)
		if discardErr != nil {
			return fmt.Errorf(
				"response is larger than configured max %d - unable to determine response size: %w",
				readMaxBytes, discardErr,
			)
		}
		return fmt.Errorf(
			"response size %d is larger than configured max %d",
			bytesRead+discardedBytes, readMaxBytes,
		)
	}
	return nil
}
