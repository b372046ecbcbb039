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

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/config"
	"github.com/stealthnote/stealthnote/backend/ephemeral"
	"github.com/stealthnote/stealthnote/backend/middleware"
	"github.com/stealthnote/stealthnote/backend/models"
	"github.com/stealthnote/stealthnote/backend/providers"
)

const (
	testSecret = "test-secret"
	testIssuer = "https://accounts.google.com"
	testGroup  = "acme.com"
)

func testConfig() *config.Config {
	return &config.Config{
		GoogleJWTIssuer:   testIssuer,
		DefaultFetchLimit: 50,
		MaxFetchLimit:     100,
	}
}

// newTestRouter wires the handlers the same way main does.
func newTestRouter(store *fakeStore, cfg *config.Config) *mux.Router {
	logger := zap.NewNop()
	registry := providers.NewRegistry(
		providers.NewGoogleProvider(providers.HMACKeyfunc([]byte(testSecret)), testIssuer),
	)

	membershipHandler := NewMembershipHandler(store, registry, cfg, logger)
	messageHandler := NewMessageHandler(store, cfg, logger)
	likeHandler := NewLikeHandler(store, logger)

	r := mux.NewRouter()
	r.Use(middleware.BearerPubkey)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/memberships", membershipHandler.CreateMembership).Methods("POST")
	api.HandleFunc("/memberships", membershipHandler.ListMemberships).Methods("GET")
	api.HandleFunc("/messages", messageHandler.PostMessage).Methods("POST")
	api.HandleFunc("/messages", messageHandler.FetchMessages).Methods("GET")
	api.HandleFunc("/messages/{id}", messageHandler.GetMessage).Methods("GET")
	api.HandleFunc("/messages/{id}/like", likeHandler.ToggleLike).Methods("POST")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// mintProof builds a google-oauth proof token bound to the key.
func mintProof(t *testing.T, key *ephemeral.Key, group string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"hd":    group,
		"nonce": ephemeral.Nonce(key.Pubkey, key.Expiry),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// registerKey seeds a verified membership directly into the store.
func registerKey(t *testing.T, store *fakeStore, key *ephemeral.Key, group string) {
	t.Helper()
	_, err := store.UpsertMembership(context.Background(), models.Membership{
		UserID:                ephemeral.SubjectID(key.Pubkey),
		GroupID:               group,
		Provider:              providers.GoogleOAuth,
		EphemeralPubkey:       key.Pubkey,
		EphemeralPubkeyExpiry: key.Expiry,
		Proof:                 []byte("proof"),
	})
	require.NoError(t, err)
}

// signedMessage builds and signs a post for the given key.
func signedMessage(t *testing.T, key *ephemeral.Key, id, group, text string, internal bool) models.SignedMessage {
	t.Helper()
	msg := models.SignedMessage{
		ID:        id,
		GroupID:   group,
		Provider:  providers.GoogleOAuth,
		Text:      text,
		Timestamp: time.Now().Truncate(time.Millisecond),
		Internal:  internal,
	}
	msg.Signature = key.SignMessage(&msg)
	return msg
}

func newKey(t *testing.T, validFor time.Duration) *ephemeral.Key {
	t.Helper()
	key, err := ephemeral.Generate(validFor)
	require.NoError(t, err)
	return key
}
