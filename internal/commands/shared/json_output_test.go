// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitJSON(t *testing.T) {
	var buf bytes.Buffer
	resp := struct {
		JSONResponse
		Bind string `json:"bind"`
	}{
		JSONResponse: JSONResponse{Version: "1.0", Command: "check", Success: true},
		Bind:         "127.0.0.1:8443",
	}

	require.NoError(t, EmitJSON(&buf, resp))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "1.0", got["@version"])
	assert.Equal(t, "check", got["command"])
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "127.0.0.1:8443", got["bind"])
	assert.Contains(t, buf.String(), "\n  ", "output is indented")
}
