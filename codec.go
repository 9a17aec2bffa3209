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

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const (
	codecNameJSON      = "json"
	codecNameProtoJSON = "protojson"
)

// Codec marshals request payloads and unmarshals response payloads. The
// bytes a Codec sees are always the bare payload: envelope framing has
// already been stripped on the way in and is applied after Marshal on
// the way out.
//
// Marshal must produce compact JSON with no trailing newline, since the
// serialized form is compared byte-for-byte by replay tooling.
type Codec interface {
	// Name returns the codec's name, used to identify it in logs and
	// error messages.
	Name() string

	Marshal(any) ([]byte, error)
	Unmarshal([]byte, any) error
}

// jsonCodec is the default Codec. It accepts any value encoding/json can
// handle, which keeps plain structs and map[string]any usable as message
// types without further ceremony.
type jsonCodec struct{}

var _ Codec = (*jsonCodec)(nil)

func (c *jsonCodec) Name() string { return codecNameJSON }

func (c *jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (c *jsonCodec) Unmarshal(binary []byte, message any) error {
	if len(binary) == 0 {
		return errors.New("zero-length payload is not valid JSON")
	}
	return json.Unmarshal(binary, message)
}

// protoJSONCodec maps payloads to and from generated protobuf messages.
// Unknown fields in responses are discarded rather than rejected, so a
// service may grow its schema without breaking older clients.
//
// Note that protojson output is deliberately nondeterministic about
// whitespace, so this codec doesn't honor the byte-for-byte stability
// the default codec provides.
type protoJSONCodec struct{}

var _ Codec = (*protoJSONCodec)(nil)

func (c *protoJSONCodec) Name() string { return codecNameProtoJSON }

func (c *protoJSONCodec) Marshal(message any) ([]byte, error) {
	protoMessage, ok := message.(proto.Message)
	if !ok {
		return nil, errNotProto(message)
	}
	return protojson.Marshal(protoMessage)
}

func (c *protoJSONCodec) Unmarshal(binary []byte, message any) error {
	protoMessage, ok := message.(proto.Message)
	if !ok {
		return errNotProto(message)
	}
	if len(binary) == 0 {
		return errors.New("zero-length payload is not valid JSON")
	}
	options := protojson.UnmarshalOptions{DiscardUnknown: true}
	return options.Unmarshal(binary, protoMessage)
}

func errNotProto(message any) error {
	return fmt.Errorf("%T doesn't implement proto.Message", message)
}
