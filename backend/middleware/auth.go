// Copyright (C) 2025 stealthnote.xyz <dev@stealthnote.xyz>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const pubkeyContextKey contextKey = "ephemeral_pubkey"

// BearerPubkey extracts the ephemeral pubkey from the Authorization
// header into the request context. There are no accounts here, so the
// bearer value is the pubkey itself; whether a route requires one is
// the handler's decision, not the middleware's — external feed reads
// are anonymous by design.
func BearerPubkey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
				ctx := context.WithValue(r.Context(), pubkeyContextKey, parts[1])
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// PubkeyFrom returns the bearer pubkey, if one was presented.
func PubkeyFrom(r *http.Request) (string, bool) {
	pubkey, ok := r.Context().Value(pubkeyContextKey).(string)
	return pubkey, ok
}
