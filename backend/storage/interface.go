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

package storage

import (
	"context"
	"time"

	"github.com/stealthnote/stealthnote/backend/models"
)

// MembershipStore persists verified (pubkey, group, provider) bindings.
type MembershipStore interface {
	// UpsertMembership inserts or replaces the row keyed by
	// (user_id, anon_group_id, anon_group_provider). Re-registration
	// with a fresh key supersedes the old binding atomically.
	UpsertMembership(ctx context.Context, m models.Membership) (*models.Membership, error)

	// GetMembership returns apperr.ErrMembershipNotFound when no row
	// matches the exact (pubkey, group, provider) triple.
	GetMembership(ctx context.Context, pubkey, groupID, provider string) (*models.Membership, error)

	ListMemberships(ctx context.Context, filter MembershipFilter) ([]models.Membership, error)

	// IsGroupMember reports whether a non-expired membership binds
	// pubkey to groupID under any provider.
	IsGroupMember(ctx context.Context, pubkey, groupID string, now time.Time) (bool, error)
}

// MessageStore persists admitted messages. Admission checks happen
// before InsertMessage; the store only enforces id uniqueness.
type MessageStore interface {
	// InsertMessage stores an admitted message. A duplicate id is
	// treated as idempotent success, supporting caller retries.
	InsertMessage(ctx context.Context, msg models.SignedMessage) error

	// GetMessage returns apperr.ErrMessageNotFound for absent ids.
	GetMessage(ctx context.Context, id string) (*models.SignedMessage, error)

	ListMessages(ctx context.Context, q MessageQuery) ([]models.SignedMessage, error)
}

// LikeStore records like facts and keeps the derived count coherent.
type LikeStore interface {
	// ToggleLike inserts or removes the (messageID, pubkey) like fact,
	// then recounts the facts and stores the result on the message,
	// atomically with respect to concurrent toggles on the same
	// message. Both directions are idempotent. Returns
	// apperr.ErrMessageNotFound if the message does not exist.
	ToggleLike(ctx context.Context, messageID, pubkey string, like bool) (liked bool, count int, err error)
}

type Store interface {
	MembershipStore
	MessageStore
	LikeStore
}

type MembershipFilter struct {
	UserID   string
	GroupID  string
	Provider string
}

// MessageQuery selects one feed page, newest first. After/Before bound
// the timestamp window; pagination is the caller resubmitting bounds.
type MessageQuery struct {
	GroupID  string
	Internal bool
	Limit    int
	After    *time.Time
	Before   *time.Time
}
