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
	"sync"
)

// Response bodies are transient: everything decoded from them is a copy
// by the time deserializeResponse returns, so read buffers are safe to
// recycle.
var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buffer *bytes.Buffer) {
	const max = 1024 * 1024 // if >1 MiB, don't hold onto it
	if buffer.Cap() > max {
		return
	}
	buffer.Reset()
	bufferPool.Put(buffer)
}
