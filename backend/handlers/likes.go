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
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/middleware"
	"github.com/stealthnote/stealthnote/backend/storage"
)

type LikeHandler struct {
	store  storage.LikeStore
	logger *zap.Logger
}

func NewLikeHandler(store storage.LikeStore, logger *zap.Logger) *LikeHandler {
	return &LikeHandler{store: store, logger: logger}
}

type toggleLikeRequest struct {
	UserEphemeralPubkey string `json:"userEphemeralPubkey"`
	IsLiked             bool   `json:"isLiked"`
}

// ToggleLike is gated only by possession of an ephemeral pubkey, sent
// either as a bearer header or in the body. The response count is the
// server's recount; clients reconcile optimistic state against it.
func (h *LikeHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]

	var req toggleLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid request body"))
		return
	}

	pubkey, ok := middleware.PubkeyFrom(r)
	if !ok {
		pubkey = req.UserEphemeralPubkey
	}
	if pubkey == "" {
		writeError(w, h.logger, apperr.ErrAuthRequired)
		return
	}
	if messageID == "" {
		writeError(w, h.logger, apperr.ErrMissingFields)
		return
	}

	liked, count, err := h.store.ToggleLike(r.Context(), messageID, pubkey, req.IsLiked)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"likes":   count,
		"isLiked": liked,
	})
}
