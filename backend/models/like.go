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

// Like is a fact: this pubkey likes this message. The likes column on
// messages is always recomputed from these rows, never incremented.
type Like struct {
	MessageID       string    `json:"message_id" db:"message_id"`
	EphemeralPubkey string    `json:"user_ephemeral_pubkey" db:"user_ephemeral_pubkey"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
