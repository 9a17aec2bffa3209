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

// An Option configures a Service during construction. Options only take
// effect in NewService; a built Service is immutable.
type Option interface {
	applyToService(*serviceConfig)
}

type serviceConfig struct {
	Codec         Codec
	ReadMaxBytes  int
	ExtraFeatures []Feature
}

func newServiceConfig(options []Option) *serviceConfig {
	config := &serviceConfig{Codec: &jsonCodec{}}
	for _, option := range options {
		option.applyToService(config)
	}
	if config.Codec == nil {
		config.Codec = &jsonCodec{}
	}
	return config
}

// WithCodec swaps the codec used for payload bodies. Envelope framing is
// unaffected: the codec only ever sees bare payloads. A nil codec
// restores the default JSON codec.
func WithCodec(codec Codec) Option {
	return &codecOption{Codec: codec}
}

type codecOption struct {
	Codec Codec
}

func (o *codecOption) applyToService(config *serviceConfig) {
	config.Codec = o.Codec
}

// WithProtoJSON makes the Service map payload bodies to and from
// generated protobuf messages using the protojson mapping, discarding
// unknown response fields. It's shorthand for WithCodec with the
// protojson codec.
func WithProtoJSON() Option {
	return WithCodec(&protoJSONCodec{})
}

// WithReadMaxBytes limits the performance impact of pathologically large
// response bodies: a read that would exceed n bytes fails instead of
// buffering without bound. Setting n to zero (the default) allows any
// size.
func WithReadMaxBytes(n int) Option {
	return &readMaxBytesOption{ReadMaxBytes: n}
}

type readMaxBytesOption struct {
	ReadMaxBytes int
}

func (o *readMaxBytesOption) applyToService(config *serviceConfig) {
	config.ReadMaxBytes = o.ReadMaxBytes
}

// WithFeatures declares protocol features beyond those the discovery
// document already lists, as though the document had declared them
// itself. Repeats of an already-declared feature are harmless.
func WithFeatures(features ...Feature) Option {
	return &featuresOption{Features: features}
}

type featuresOption struct {
	Features []Feature
}

func (o *featuresOption) applyToService(config *serviceConfig) {
	config.ExtraFeatures = append(config.ExtraFeatures, o.Features...)
}
