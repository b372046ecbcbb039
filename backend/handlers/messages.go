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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/config"
	"github.com/stealthnote/stealthnote/backend/ephemeral"
	"github.com/stealthnote/stealthnote/backend/middleware"
	"github.com/stealthnote/stealthnote/backend/models"
	"github.com/stealthnote/stealthnote/backend/storage"
)

type MessageHandler struct {
	store  storage.Store
	cfg    *config.Config
	logger *zap.Logger
}

func NewMessageHandler(store storage.Store, cfg *config.Config, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{store: store, cfg: cfg, logger: logger}
}

// PostMessage runs the admission pipeline. Each stage is terminal on
// failure and nothing is written until every stage passes, so a stored
// message is guaranteed to have been signed by the holder of its stated
// key while that key was valid.
func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.SignedMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid request body"))
		return
	}

	if msg.ID == "" || msg.GroupID == "" || msg.Provider == "" || msg.Text == "" ||
		msg.Timestamp.IsZero() || msg.Signature == "" || msg.EphemeralPubkey == "" ||
		msg.EphemeralPubkeyExpiry.IsZero() {
		writeError(w, h.logger, apperr.ErrMissingFields)
		return
	}

	if !msg.EphemeralPubkeyExpiry.After(time.Now()) {
		writeError(w, h.logger, apperr.ErrExpiredKey)
		return
	}

	membership, err := h.store.GetMembership(r.Context(), msg.EphemeralPubkey, msg.GroupID, msg.Provider)
	switch {
	case errors.Is(err, apperr.ErrMembershipNotFound):
		if !h.cfg.AllowUnverifiedMembership {
			writeError(w, h.logger, apperr.ErrMembershipRequired)
			return
		}
		// Degraded mode: legacy keys registered before proof
		// enforcement. Loud on purpose.
		h.logger.Warn("admitting message without membership row",
			zap.String("group_id", msg.GroupID), zap.String("message_id", msg.ID))
	case err != nil:
		writeError(w, h.logger, err)
		return
	default:
		// The lookup matched (pubkey, group, provider); the claimed
		// expiry must also be the registered one, or the client is
		// presenting a key window the proof never covered.
		if !membership.EphemeralPubkeyExpiry.Equal(msg.EphemeralPubkeyExpiry) {
			writeError(w, h.logger, apperr.ErrMembershipMismatch)
			return
		}
	}

	if err := ephemeral.VerifyMessageSignature(&msg); err != nil {
		writeError(w, h.logger, err)
		return
	}

	msg.Likes = 0
	if err := h.store.InsertMessage(r.Context(), msg); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("message admitted",
		zap.String("message_id", msg.ID),
		zap.String("group_id", msg.GroupID),
		zap.Bool("internal", msg.Internal))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Message saved successfully"})
}

func (h *MessageHandler) FetchMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	groupID := q.Get("groupId")
	isInternal := q.Get("isInternal") == "true"

	limit := h.cfg.DefaultFetchLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.cfg.MaxFetchLimit {
		limit = h.cfg.MaxFetchLimit
	}

	after, err := parseMillis(q.Get("afterTimestamp"))
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid afterTimestamp"))
		return
	}
	before, err := parseMillis(q.Get("beforeTimestamp"))
	if err != nil {
		writeError(w, h.logger, apperr.Validation("invalid beforeTimestamp"))
		return
	}

	// The internal feed is readable only by proven members of the
	// group; the external feed is public.
	if isInternal {
		if groupID == "" {
			writeError(w, h.logger, apperr.ErrGroupIDRequired)
			return
		}
		pubkey, ok := middleware.PubkeyFrom(r)
		if !ok {
			writeError(w, h.logger, apperr.ErrAuthRequired)
			return
		}
		member, err := h.store.IsGroupMember(r.Context(), pubkey, groupID, time.Now())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if !member {
			writeError(w, h.logger, apperr.ErrNotGroupMember)
			return
		}
	}

	messages, err := h.store.ListMessages(r.Context(), storage.MessageQuery{
		GroupID:  groupID,
		Internal: isInternal,
		Limit:    limit,
		After:    after,
		Before:   before,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	msg, err := h.store.GetMessage(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func parseMillis(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	t := time.UnixMilli(ms)
	return &t, nil
}
