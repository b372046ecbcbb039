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
	"time"
)

// SignedMessage is a post signed by an ephemeral key. Pubkey and
// signature travel as decimal big-integer strings, matching the wire
// form clients produce. The id is client-generated so a retried insert
// stays idempotent. Immutable once admitted, except the likes count.
type SignedMessage struct {
	ID                    string    `json:"id"`
	GroupID               string    `json:"anonGroupId"`
	Provider              string    `json:"anonGroupProvider"`
	Text                  string    `json:"text"`
	Timestamp             time.Time `json:"timestamp"`
	Internal              bool      `json:"internal"`
	Signature             string    `json:"signature"`
	EphemeralPubkey       string    `json:"ephemeralPubkey"`
	EphemeralPubkeyExpiry time.Time `json:"ephemeralPubkeyExpiry"`
	Likes                 int       `json:"likes"`
}
