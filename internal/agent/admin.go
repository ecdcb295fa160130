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

package agent

import (
	"net/http"

	"github.com/tombee/uri-agent/internal/httputil"
)

// newAdminHandler serves health and metrics on the admin listener. It is
// never mounted on the disclosure listener.
func newAdminHandler(metricsHandler http.Handler, serving func() bool) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if !serving() {
			httputil.WriteText(w, http.StatusServiceUnavailable, "not serving")
			return
		}
		httputil.WriteText(w, http.StatusOK, "ok")
	})
	mux.Handle("GET /metrics", metricsHandler)

	return mux
}
