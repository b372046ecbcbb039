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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/config"
	"github.com/stealthnote/stealthnote/backend/ephemeral"
	"github.com/stealthnote/stealthnote/backend/models"
	"github.com/stealthnote/stealthnote/backend/providers"
	"github.com/stealthnote/stealthnote/backend/storage"
)

type MembershipHandler struct {
	store     storage.MembershipStore
	providers *providers.Registry
	cfg       *config.Config
	logger    *zap.Logger
}

func NewMembershipHandler(store storage.MembershipStore, registry *providers.Registry, cfg *config.Config, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{store: store, providers: registry, cfg: cfg, logger: logger}
}

type createMembershipRequest struct {
	EphemeralPubkey       string          `json:"ephemeralPubkey"`
	EphemeralPubkeyExpiry time.Time       `json:"ephemeralPubkeyExpiry"`
	GroupID               string          `json:"groupId"`
	Provider              string          `json:"provider"`
	Proof                 json.RawMessage `json:"proof"`
	ProofArgs             json.RawMessage `json:"proofArgs"`
}

func (h *MembershipHandler) CreateMembership(w http.ResponseWriter, r *http.Request) {
	var req createMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid request body"))
		return
	}

	proof, err := decodeProof(req.Proof)
	if err != nil {
		writeError(w, h.logger, apperr.Validation("malformed proof"))
		return
	}

	if req.EphemeralPubkey == "" || req.EphemeralPubkeyExpiry.IsZero() ||
		req.GroupID == "" || req.Provider == "" || len(proof) == 0 {
		writeError(w, h.logger, apperr.ErrMissingFields)
		return
	}

	if _, ok := h.providers.Get(req.Provider); !ok {
		writeError(w, h.logger, apperr.ErrUnknownProvider)
		return
	}

	if h.cfg.SkipProofVerification {
		h.logger.Warn("proof verification bypassed by configuration",
			zap.String("group_id", req.GroupID), zap.String("provider", req.Provider))
	} else {
		err := h.providers.Verify(r.Context(), req.Provider, proof,
			req.GroupID, req.EphemeralPubkey, req.EphemeralPubkeyExpiry, req.ProofArgs)
		if err != nil {
			h.logger.Info("membership proof rejected",
				zap.String("group_id", req.GroupID),
				zap.String("provider", req.Provider),
				zap.Error(err))
			writeError(w, h.logger, err)
			return
		}
	}

	stored, err := h.store.UpsertMembership(r.Context(), models.Membership{
		UserID:                ephemeral.SubjectID(req.EphemeralPubkey),
		GroupID:               req.GroupID,
		Provider:              req.Provider,
		EphemeralPubkey:       req.EphemeralPubkey,
		EphemeralPubkeyExpiry: req.EphemeralPubkeyExpiry,
		Proof:                 proof,
		ProofArgs:             req.ProofArgs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("membership registered",
		zap.String("group_id", stored.GroupID), zap.String("provider", stored.Provider))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    stored,
	})
}

func (h *MembershipHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	memberships, err := h.store.ListMemberships(r.Context(), storage.MembershipFilter{
		UserID:   q.Get("user_id"),
		GroupID:  q.Get("anon_group_id"),
		Provider: q.Get("anon_group_provider"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, memberships)
}

// decodeProof accepts the shapes clients send the opaque blob in: a
// JSON array of byte values, a base64 string, or a plain string (JWT
// compact form). The bytes mean whatever the provider says they mean.
func decodeProof(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			return b, nil
		}
		return []byte(s), nil
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte value out of range at index %d", i)
		}
		out[i] = byte(v)
	}
	return out, nil
}
