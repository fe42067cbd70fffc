// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
)

// IncidentHeader carries the id a recovered panic was logged under.
const IncidentHeader = "X-Incident-Id"

// Recoverer turns a panic in a downstream handler into a logged incident
// and a JSON 500 that names the incident in IncidentHeader. When the
// handler had already started its response, only the log line is written.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			incident := uuid.NewString()
			slog.Error("handler panic",
				"incident", incident,
				"panic", fmt.Sprint(v),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if rec.started {
				return
			}
			w.Header().Set(IncidentHeader, incident)
			WriteError(w, http.StatusInternalServerError, "internal server error")
		}()

		next.ServeHTTP(rec, r)
	})
}
