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
	"github.com/juju/loggo/v2"
)

// Version is the semantic version of the disco module.
const Version = "0.3.0"

// logger is quiet unless the embedding program configures the "disco"
// logger through loggo's registry.
var logger = loggo.GetLogger("disco")

// A ProtocolVersion names the wire convention generation a service
// declares. It is supplied by the caller when constructing a Service and
// is never inferred from payload shape.
//
// The set is open: versions other than the two enumerated below use the
// direct object convention unless the service's feature tags say
// otherwise. See NewService for how versions and feature tags interact.
type ProtocolVersion string

const (
	// ProtocolV1 is the current convention: the payload is the top-level
	// JSON object, and an error response is distinguished purely by the
	// presence of a top-level "error" key.
	ProtocolV1 ProtocolVersion = "v1"

	// ProtocolV0_3 is the legacy convention: successful payloads arrive
	// wrapped as {"data": ...}, errors as {"error": ...}, both at the same
	// top level.
	ProtocolV0_3 ProtocolVersion = "v0.3"
)

func (v ProtocolVersion) String() string {
	return string(v)
}
