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

// Package disco handles the JSON wire envelopes used by discovery-style
// REST services.
//
// Services described by a discovery document have used two incompatible
// response conventions over time. Modern APIs return the payload as the
// top-level JSON object. Older APIs wrap every successful payload as
// {"data": ...} and declare that behavior with the "dataWrapper" feature
// tag in their discovery document. Both conventions report failures as a
// top-level {"error": ...} object.
//
// A Service hides the difference behind two operations. The wire strategy
// is chosen once, from the declared protocol version and the document's
// feature tags, when the Service is constructed:
//
//	svc, err := disco.NewService(disco.ProtocolV1, "urlshortener", document)
//	if err != nil {
//		// document metadata had an incompatible shape
//	}
//	url, err := disco.DeserializeResponse[shortURL](svc, response.Body)
//	body, err := svc.SerializeRequest(&shortURL{LongURL: "https://example.com"})
//
// Server-reported errors are never swallowed: DeserializeResponse returns
// an *APIError carrying the full error detail whenever the response body
// contains one, and errors.As recovers it. Structural violations of the
// envelope itself surface as *MalformedEnvelopeError, and descriptor
// metadata with an incompatible shape as *SchemaMismatchError, so callers
// can tell wire corruption apart from legitimate API failures.
//
// Fetching discovery documents, HTTP transport, and authentication are
// deliberately out of scope; callers hand this package raw response bytes
// and receive request bodies ready to send.
package disco // import "github.com/discokit/disco"
