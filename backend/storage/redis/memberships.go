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

package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stealthnote/stealthnote/backend/models"
)

const (
	// Entries never outlive the key they describe; the cap bounds how
	// long a superseded binding can linger after re-registration on a
	// node whose invalidation was lost.
	maxCacheTTL = time.Hour

	membershipPrefix = "membership:" // membership:{pubkey}:{group}:{provider}
	memberFlagPrefix = "member:"     // member:{pubkey}:{group}
)

// MembershipCache is a read-through cache in front of the memberships
// table. Internal-feed authorization hits the same lookup on every
// request, and membership rows are immutable between registrations, so
// they cache well. All methods are nil-receiver safe; a deployment
// without Redis just runs uncached.
type MembershipCache struct {
	rdb *redis.Client
}

func NewMembershipCache(rdb *redis.Client) *MembershipCache {
	return &MembershipCache{rdb: rdb}
}

func (c *MembershipCache) enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *MembershipCache) GetMembership(ctx context.Context, pubkey, groupID, provider string) (*models.Membership, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, membershipKey(pubkey, groupID, provider)).Result()
	if err != nil {
		return nil, false
	}
	var m models.Membership
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, false
	}
	return &m, true
}

func (c *MembershipCache) SetMembership(ctx context.Context, m models.Membership) {
	if !c.enabled() {
		return
	}
	ttl := cacheTTL(m.EphemeralPubkeyExpiry)
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, membershipKey(m.EphemeralPubkey, m.GroupID, m.Provider), data, ttl)
}

// InvalidateMembership drops cached state for a binding, called when a
// re-registration supersedes it.
func (c *MembershipCache) InvalidateMembership(ctx context.Context, pubkey, groupID, provider string) {
	if !c.enabled() {
		return
	}
	c.rdb.Del(ctx,
		membershipKey(pubkey, groupID, provider),
		memberFlagPrefix+pubkey+":"+groupID)
}

func (c *MembershipCache) GetGroupMember(ctx context.Context, pubkey, groupID string) (bool, bool) {
	if !c.enabled() {
		return false, false
	}
	v, err := c.rdb.Get(ctx, memberFlagPrefix+pubkey+":"+groupID).Result()
	if err != nil {
		return false, false
	}
	return v == "1", true
}

func (c *MembershipCache) SetGroupMember(ctx context.Context, pubkey, groupID string, member bool, keyExpiry time.Time) {
	if !c.enabled() {
		return
	}
	ttl := cacheTTL(keyExpiry)
	if ttl <= 0 {
		return
	}
	v := "0"
	if member {
		v = "1"
	}
	c.rdb.Set(ctx, memberFlagPrefix+pubkey+":"+groupID, v, ttl)
}

func membershipKey(pubkey, groupID, provider string) string {
	return membershipPrefix + pubkey + ":" + groupID + ":" + provider
}

func cacheTTL(expiry time.Time) time.Duration {
	ttl := time.Until(expiry)
	if ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}
	return ttl
}
