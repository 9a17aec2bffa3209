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
	"fmt"
	"io"
)

// A Service converts between typed messages and the wire bodies of one
// discovered API. Everything that varies (envelope convention, codec,
// feature set, read limit) is fixed in NewService, so a Service is
// immutable and safe for concurrent use by multiple goroutines.
type Service struct {
	name         string
	version      ProtocolVersion
	descriptor   *Descriptor
	features     featureSet
	codec        Codec
	format       wireFormat
	readMaxBytes int
}

// NewService builds a Service for the named API. The name and version
// arguments are authoritative (they usually come from the URL the
// discovery document was fetched from); whatever the document itself
// declares stays readable through Descriptor.
//
// The document may be nil. Construction fails only when a document key
// this package reads carries an incompatible shape, reported as a
// *SchemaMismatchError.
func NewService(version ProtocolVersion, name string, document map[string]any, options ...Option) (*Service, error) {
	config := newServiceConfig(options)
	descriptor, err := NewDescriptor(document)
	if err != nil {
		return nil, err
	}
	features := newFeatureSet(descriptor.Features(), config.ExtraFeatures...)
	format := wireFormatFor(version, features)
	logger.Tracef(
		"service %s (%s): %s framing, %s codec, features %v",
		name, version, format.name(), config.Codec.Name(), features.list(),
	)
	return &Service{
		name:         name,
		version:      version,
		descriptor:   descriptor,
		features:     features,
		codec:        config.Codec,
		format:       format,
		readMaxBytes: config.ReadMaxBytes,
	}, nil
}

// Name returns the service name the Service was constructed with.
func (s *Service) Name() string { return s.name }

// ProtocolVersion returns the protocol version the Service was
// constructed with.
func (s *Service) ProtocolVersion() ProtocolVersion { return s.version }

// Descriptor returns the typed view of the discovery document the
// Service was built from. It's never nil.
func (s *Service) Descriptor() *Descriptor { return s.descriptor }

// Features returns the effective feature set: the document's declared
// features plus any added with WithFeatures, deduplicated, in
// first-declared order.
func (s *Service) Features() []Feature {
	return s.features.list()
}

// HasFeature reports whether the effective feature set contains feature.
func (s *Service) HasFeature(feature Feature) bool {
	return s.features.has(feature)
}

// DeserializeResponse reads one response body from source and decodes it
// into a fresh T. It drains source but doesn't close it; releasing the
// stream stays with the caller.
//
// Failures keep their taxonomy: a body the envelope convention can't
// account for is a *MalformedEnvelopeError, an error-tagged body is
// returned as the *APIError it describes, and a well-formed body the
// codec can't decode into T is a plain wrapped codec error. Fields T
// declares but the body omits keep their zero values.
func DeserializeResponse[T any](service *Service, source io.Reader) (*T, error) {
	var message T
	if err := service.deserializeResponse(source, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *Service) deserializeResponse(source io.Reader, message any) error {
	buffer := getBuffer()
	defer putBuffer(buffer)
	if err := readAll(buffer, source, s.readMaxBytes); err != nil {
		return err
	}
	body, errValue, err := s.format.decode(buffer.Bytes())
	if err != nil {
		return err
	}
	if errValue != nil {
		apiError, err := translateError(errValue)
		if err != nil {
			return err
		}
		logger.Debugf("service %s: %s", s.name, apiError)
		return apiError
	}
	if err := s.codec.Unmarshal(body, message); err != nil {
		return fmt.Errorf("unmarshal response body into %T: %w", message, err)
	}
	logger.Tracef("service %s: decoded %d body bytes into %T", s.name, len(body), message)
	return nil
}

// SerializeRequest marshals message with the Service's codec and frames
// it for the wire. The result is compact JSON with no trailing newline:
// under direct framing the payload itself, under legacy framing the
// payload wrapped as {"data":...}. Output bytes are stable for a given
// message with the default codec.
func (s *Service) SerializeRequest(message any) (string, error) {
	payload, err := s.codec.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}
	framed := s.format.encode(payload)
	logger.Tracef("service %s: marshaled %d-byte request body from %T", s.name, len(framed), message)
	return string(framed), nil
}
