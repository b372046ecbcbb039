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

package models

import (
	"encoding/json"
	"time"
)

// Membership binds a verified ephemeral pubkey to an anonymity group.
// There is no user account behind it; UserID is derived from the pubkey
// and exists only to key the row. At most one live membership exists per
// (user_id, anon_group_id, anon_group_provider); re-registration with a
// fresh key replaces the previous row.
type Membership struct {
	UserID                string          `json:"user_id" db:"user_id"`
	GroupID               string          `json:"anon_group_id" db:"anon_group_id"`
	Provider              string          `json:"anon_group_provider" db:"anon_group_provider"`
	EphemeralPubkey       string          `json:"ephemeral_pubkey" db:"ephemeral_pubkey"`
	EphemeralPubkeyExpiry time.Time       `json:"ephemeral_pubkey_expiry" db:"ephemeral_pubkey_expiry"`
	Proof                 []byte          `json:"-" db:"proof"`
	ProofArgs             json.RawMessage `json:"proof_args,omitempty" db:"proof_args"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
}
