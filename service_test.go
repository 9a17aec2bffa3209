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
	"sync"
	"testing"

	"github.com/discokit/disco/internal/assert"
	"google.golang.org/protobuf/types/known/structpb"
)

// shortURL mirrors the url resource of the urlshortener API, the
// canonical example of a service that shipped both envelope conventions.
type shortURL struct {
	Kind    string `json:"kind,omitempty"`
	ID      string `json:"id,omitempty"`
	LongURL string `json:"longUrl,omitempty"`
	Status  string `json:"status,omitempty"`
}

const (
	directBody  = `{"kind":"urlshortener#url","id":"https://goo.gl/fbsS","longUrl":"http://www.google.com/"}`
	wrappedBody = `{"data":` + directBody + `}`
	errorBody   = `{"error":{"code":400,"message":"Required","errors":[{"domain":"global","reason":"required","message":"Required","locationType":"parameter","location":"resource.longUrl"}]}}`
)

func wantShortURL() *shortURL {
	return &shortURL{
		Kind:    "urlshortener#url",
		ID:      "https://goo.gl/fbsS",
		LongURL: "http://www.google.com/",
	}
}

func mustService(t *testing.T, version ProtocolVersion, document map[string]any, options ...Option) *Service {
	t.Helper()
	service, err := NewService(version, "urlshortener", document, options...)
	assert.Nil(t, err)
	return service
}

func TestServiceDeserializeDirect(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV1, nil)

	t.Run("payload at top level", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(directBody))
		assert.Nil(t, err)
		assert.Equal(t, got, wantShortURL())
	})

	t.Run("missing fields keep zero values", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(`{"kind":"urlshortener#url"}`))
		assert.Nil(t, err)
		assert.Equal(t, got, &shortURL{Kind: "urlshortener#url"})
	})

	t.Run("unknown fields tolerated", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(`{"kind":"urlshortener#url","analytics":{"allTime":{}}}`))
		assert.Nil(t, err)
		assert.Equal(t, got.Kind, "urlshortener#url")
	})
}

func TestServiceDeserializeLegacy(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV0_3, nil)

	t.Run("data wrapper unwrapped", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(wrappedBody))
		assert.Nil(t, err)
		assert.Equal(t, got, wantShortURL())
	})

	t.Run("null data yields zero values", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(`{"data":null}`))
		assert.Nil(t, err)
		assert.Equal(t, got, &shortURL{})
	})

	t.Run("unwrapped body is malformed", func(t *testing.T) {
		t.Parallel()
		_, err := DeserializeResponse[shortURL](service, strings.NewReader(directBody))
		assert.NotNil(t, err)
		assert.ErrorAs[*MalformedEnvelopeError](t, err)
	})

	t.Run("empty body is malformed", func(t *testing.T) {
		t.Parallel()
		_, err := DeserializeResponse[shortURL](service, strings.NewReader(""))
		assert.NotNil(t, err)
		assert.ErrorAs[*MalformedEnvelopeError](t, err)
	})
}

func TestLegacyFeatureWinsOverVersion(t *testing.T) {
	t.Parallel()

	t.Run("declared by the document", func(t *testing.T) {
		t.Parallel()
		document := map[string]any{"features": []any{"dataWrapper"}}
		service := mustService(t, ProtocolV1, document)
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(wrappedBody))
		assert.Nil(t, err)
		assert.Equal(t, got, wantShortURL())
	})

	t.Run("declared by option", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolV1, nil, WithFeatures(FeatureLegacyDataResponse))
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(wrappedBody))
		assert.Nil(t, err)
		assert.Equal(t, got, wantShortURL())

		// The same service now requires legacy framing throughout.
		_, err = DeserializeResponse[shortURL](service, strings.NewReader(directBody))
		assert.NotNil(t, err)
		assert.ErrorAs[*MalformedEnvelopeError](t, err)
	})
}

func TestServiceDeserializeAPIError(t *testing.T) {
	t.Parallel()
	for _, version := range []ProtocolVersion{ProtocolV1, ProtocolV0_3} {
		version := version
		t.Run(version.String(), func(t *testing.T) {
			t.Parallel()
			service := mustService(t, version, nil)
			_, err := DeserializeResponse[shortURL](service, strings.NewReader(errorBody))
			assert.NotNil(t, err)
			apiError, ok := AsAPIError(err)
			assert.True(t, ok)
			assert.Equal(t, apiError.Code(), 400)
			assert.Equal(t, apiError.Message(), "Required")
			assert.Equal(t, apiError.Errors(), []ErrorItem{requiredItem()})
			assert.Match(t, err.Error(), `resource\.longUrl`)
		})
	}
}

func TestServiceDeserializeErrorEdges(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV0_3, nil)

	t.Run("error wins beside data", func(t *testing.T) {
		t.Parallel()
		body := `{"data":` + directBody + `,"error":{"code":500,"message":"Backend Error"}}`
		_, err := DeserializeResponse[shortURL](service, strings.NewReader(body))
		apiError, ok := AsAPIError(err)
		assert.True(t, ok)
		assert.Equal(t, apiError.Code(), 500)
		assert.Equal(t, apiError.Message(), "Backend Error")
	})

	t.Run("null error is an empty api error", func(t *testing.T) {
		t.Parallel()
		_, err := DeserializeResponse[shortURL](service, strings.NewReader(`{"error":null}`))
		apiError, ok := AsAPIError(err)
		assert.True(t, ok)
		assert.Equal(t, apiError.Code(), 0)
		assert.Equal(t, apiError.Message(), "")
	})

	t.Run("undecodable error value is malformed", func(t *testing.T) {
		t.Parallel()
		_, err := DeserializeResponse[shortURL](service, strings.NewReader(`{"error":"Required"}`))
		assert.NotNil(t, err)
		assert.ErrorAs[*MalformedEnvelopeError](t, err)
		_, ok := AsAPIError(err)
		assert.False(t, ok)
	})
}

func TestServiceCodecErrorsKeepTheirTaxonomy(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV1, nil)
	_, err := DeserializeResponse[shortURL](service, strings.NewReader(`{"kind":42}`))
	assert.NotNil(t, err)
	assert.Match(t, err.Error(), `unmarshal response body into \*disco\.shortURL`)

	// A decodable envelope with an undecodable body is neither a
	// malformed envelope nor a service-reported error.
	var malformed *MalformedEnvelopeError
	assert.False(t, errors.As(err, &malformed))
	_, ok := AsAPIError(err)
	assert.False(t, ok)
	assert.ErrorAs[*json.UnmarshalTypeError](t, err)
}

func TestServiceSerializeRequest(t *testing.T) {
	t.Parallel()
	message := &shortURL{LongURL: "http://www.google.com/"}

	t.Run("direct framing is the payload", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolV1, nil)
		got, err := service.SerializeRequest(message)
		assert.Nil(t, err)
		assert.Equal(t, got, `{"longUrl":"http://www.google.com/"}`)
	})

	t.Run("legacy framing wraps byte-exactly", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolV0_3, nil)
		got, err := service.SerializeRequest(message)
		assert.Nil(t, err)
		assert.Equal(t, got, `{"data":{"longUrl":"http://www.google.com/"}}`)
	})

	t.Run("stable output", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolV0_3, nil)
		first, err := service.SerializeRequest(message)
		assert.Nil(t, err)
		for i := 0; i < 10; i++ {
			again, err := service.SerializeRequest(message)
			assert.Nil(t, err)
			assert.Equal(t, again, first)
		}
	})

	t.Run("unmarshalable message", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolV1, nil)
		_, err := service.SerializeRequest(map[string]any{"bad": func() {}})
		assert.NotNil(t, err)
		assert.Match(t, err.Error(), `marshal request body`)
	})
}

func TestServiceProtoJSON(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV0_3, nil, WithProtoJSON())

	t.Run("decodes into proto messages", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[structpb.Struct](service, strings.NewReader(`{"data":{"longUrl":"http://www.google.com/"}}`))
		assert.Nil(t, err)
		assert.Equal(t, got.AsMap(), map[string]any{"longUrl": "http://www.google.com/"})
	})

	t.Run("rejects non-proto requests", func(t *testing.T) {
		t.Parallel()
		_, err := service.SerializeRequest(&shortURL{LongURL: "http://www.google.com/"})
		assert.NotNil(t, err)
		assert.Match(t, err.Error(), `doesn't implement proto\.Message`)
	})

	t.Run("wraps proto requests", func(t *testing.T) {
		t.Parallel()
		message, err := structpb.NewStruct(map[string]any{"longUrl": "http://www.google.com/"})
		assert.Nil(t, err)
		got, err := service.SerializeRequest(message)
		assert.Nil(t, err)
		assert.True(t, strings.HasPrefix(got, `{"data":`))
		assert.True(t, strings.HasSuffix(got, `}`))
	})
}

func TestServiceReadMaxBytes(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV1, nil, WithReadMaxBytes(len(directBody)))

	t.Run("body at the limit", func(t *testing.T) {
		t.Parallel()
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(directBody))
		assert.Nil(t, err)
		assert.Equal(t, got, wantShortURL())
	})

	t.Run("body over the limit", func(t *testing.T) {
		t.Parallel()
		oversized := `{"kind":"` + strings.Repeat("x", len(directBody)) + `"}`
		_, err := DeserializeResponse[shortURL](service, strings.NewReader(oversized))
		assert.NotNil(t, err)
		assert.Match(t, err.Error(), `larger than configured max`)
	})
}

func TestServiceAccessors(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV1, urlshortenerDocument(), WithFeatures("batch"))

	assert.Equal(t, service.Name(), "urlshortener")
	assert.Equal(t, service.ProtocolVersion(), ProtocolV1)
	assert.NotNil(t, service.Descriptor())
	// Constructor arguments are authoritative; the document keeps its say
	// through the descriptor.
	assert.Equal(t, service.Descriptor().Version(), "v1")
	assert.Equal(t, service.Descriptor().Title(), "URL Shortener API")
	assert.Equal(t, service.Features(), []Feature{"dataWrapper", "batch"})
	assert.True(t, service.HasFeature(FeatureLegacyDataResponse))
	assert.True(t, service.HasFeature("batch"))
	assert.False(t, service.HasFeature("labs"))
}

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()
		service, err := NewService(ProtocolV1, "urlshortener", nil)
		assert.Nil(t, err)
		assert.NotNil(t, service.Descriptor())
		assert.Equal(t, service.Features(), []Feature{})
	})

	t.Run("schema mismatch fails construction", func(t *testing.T) {
		t.Parallel()
		_, err := NewService(ProtocolV1, "urlshortener", map[string]any{"features": "dataWrapper"})
		assert.NotNil(t, err)
		assert.ErrorAs[*SchemaMismatchError](t, err)
	})

	t.Run("unknown versions use direct framing", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolVersion("v2"), nil)
		got, err := DeserializeResponse[shortURL](service, strings.NewReader(directBody))
		assert.Nil(t, err)
		assert.Equal(t, got, wantShortURL())
	})

	t.Run("nil codec option restores the default", func(t *testing.T) {
		t.Parallel()
		service := mustService(t, ProtocolV1, nil, WithCodec(nil))
		got, err := service.SerializeRequest(&shortURL{LongURL: "http://www.google.com/"})
		assert.Nil(t, err)
		assert.Equal(t, got, `{"longUrl":"http://www.google.com/"}`)
	})
}

func TestServiceConcurrentUse(t *testing.T) {
	t.Parallel()
	service := mustService(t, ProtocolV0_3, urlshortenerDocument())

	const (
		goroutines = 8
		iterations = 50
	)
	errs := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				got, err := DeserializeResponse[shortURL](service, strings.NewReader(wrappedBody))
				if err != nil {
					errs <- err
					return
				}
				if got.LongURL != "http://www.google.com/" {
					errs <- fmt.Errorf("unexpected longUrl %q", got.LongURL)
					return
				}
				serialized, err := service.SerializeRequest(got)
				if err != nil {
					errs <- err
					return
				}
				if serialized != `{"data":`+directBody+`}` {
					errs <- fmt.Errorf("unexpected request body %q", serialized)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
