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
	"github.com/juju/collections/set"
)

// A Feature is a named protocol capability declared by a service's
// discovery document. Membership tests compare the canonical string value
// exactly, case included; unknown strings are representable and simply
// count as not present.
type Feature string

// FeatureLegacyDataResponse marks services whose successful responses
// arrive wrapped in the legacy {"data": ...} envelope. Its canonical
// string is the literal tag legacy discovery documents carry.
const FeatureLegacyDataResponse Feature = "dataWrapper"

func (f Feature) String() string {
	return string(f)
}

// featureSet is the capability set attached to a Service. It is built
// once at construction and never mutated: membership lives in a string
// set, while the original declaration order is kept for Features().
type featureSet struct {
	ordered []Feature
	members set.Strings
}

// newFeatureSet combines the tags a document declares with any extras
// supplied via options, dropping duplicates while preserving first-seen
// order.
func newFeatureSet(declared []Feature, extra ...Feature) featureSet {
	members := set.NewStrings()
	ordered := make([]Feature, 0, len(declared)+len(extra))
	for _, group := range [][]Feature{declared, extra} {
		for _, feature := range group {
			if members.Contains(string(feature)) {
				continue
			}
			members.Add(string(feature))
			ordered = append(ordered, feature)
		}
	}
	return featureSet{ordered: ordered, members: members}
}

func (fs featureSet) has(feature Feature) bool {
	return fs.members.Contains(string(feature))
}

// list returns the tags in declaration order. The result is a copy, and
// it's empty rather than nil when no tags are declared so callers can
// range over it without a presence check.
func (fs featureSet) list() []Feature {
	out := make([]Feature, len(fs.ordered))
	copy(out, fs.ordered)
	return out
}
