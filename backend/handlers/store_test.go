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
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/models"
	"github.com/stealthnote/stealthnote/backend/storage"
)

// fakeStore implements storage.Store in memory. The mutex gives it the
// same guarantee the postgres row lock gives the real store: toggle,
// recount and store happen as one step.
type fakeStore struct {
	mu          sync.Mutex
	memberships map[string]models.Membership
	messages    map[string]models.SignedMessage
	likes       map[string]map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memberships: make(map[string]models.Membership),
		messages:    make(map[string]models.SignedMessage),
		likes:       make(map[string]map[string]bool),
	}
}

func membershipKey(userID, groupID, provider string) string {
	return userID + "|" + groupID + "|" + provider
}

func (f *fakeStore) UpsertMembership(ctx context.Context, m models.Membership) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.CreatedAt = time.Now()
	f.memberships[membershipKey(m.UserID, m.GroupID, m.Provider)] = m
	return &m, nil
}

func (f *fakeStore) GetMembership(ctx context.Context, pubkey, groupID, provider string) (*models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.EphemeralPubkey == pubkey && m.GroupID == groupID && m.Provider == provider {
			m := m
			return &m, nil
		}
	}
	return nil, apperr.ErrMembershipNotFound
}

func (f *fakeStore) ListMemberships(ctx context.Context, filter storage.MembershipFilter) ([]models.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Membership{}
	for _, m := range f.memberships {
		if filter.UserID != "" && m.UserID != filter.UserID {
			continue
		}
		if filter.GroupID != "" && m.GroupID != filter.GroupID {
			continue
		}
		if filter.Provider != "" && m.Provider != filter.Provider {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) IsGroupMember(ctx context.Context, pubkey, groupID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.memberships {
		if m.EphemeralPubkey == pubkey && m.GroupID == groupID && m.EphemeralPubkeyExpiry.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertMessage(ctx context.Context, msg models.SignedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.messages[msg.ID]; exists {
		return nil
	}
	f.messages[msg.ID] = msg
	return nil
}

func (f *fakeStore) GetMessage(ctx context.Context, id string) (*models.SignedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, apperr.ErrMessageNotFound
	}
	return &m, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, q storage.MessageQuery) ([]models.SignedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SignedMessage{}
	for _, m := range f.messages {
		if m.Internal != q.Internal {
			continue
		}
		if q.GroupID != "" && m.GroupID != q.GroupID {
			continue
		}
		if q.After != nil && !m.Timestamp.After(*q.After) {
			continue
		}
		if q.Before != nil && !m.Timestamp.Before(*q.Before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) ToggleLike(ctx context.Context, messageID, pubkey string, like bool) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return false, 0, apperr.ErrMessageNotFound
	}
	set := f.likes[messageID]
	if set == nil {
		set = make(map[string]bool)
		f.likes[messageID] = set
	}
	if like {
		set[pubkey] = true
	} else {
		delete(set, pubkey)
	}
	msg.Likes = len(set)
	f.messages[messageID] = msg
	return like, len(set), nil
}
