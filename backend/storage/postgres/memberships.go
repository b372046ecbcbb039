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

package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/models"
	"github.com/stealthnote/stealthnote/backend/storage"
)

func (s *Store) UpsertMembership(ctx context.Context, m models.Membership) (*models.Membership, error) {
	if len(m.ProofArgs) == 0 {
		m.ProofArgs = []byte("{}")
	}

	// Fetch the superseded pubkey first so its cache entries can be
	// dropped; a rotation changes the pubkey under the same row key.
	var oldPubkey string
	err := s.db.QueryRowContext(ctx, `
		SELECT ephemeral_pubkey FROM memberships
		WHERE user_id = $1 AND anon_group_id = $2 AND anon_group_provider = $3`,
		m.UserID, m.GroupID, m.Provider).Scan(&oldPubkey)
	if err != nil && err != sql.ErrNoRows {
		return nil, apperr.Store(err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO memberships (user_id, anon_group_id, anon_group_provider,
			ephemeral_pubkey, ephemeral_pubkey_expiry, proof, proof_args, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, anon_group_id, anon_group_provider) DO UPDATE
		SET ephemeral_pubkey = $4, ephemeral_pubkey_expiry = $5,
			proof = $6, proof_args = $7, created_at = $8
		RETURNING created_at`,
		m.UserID, m.GroupID, m.Provider,
		m.EphemeralPubkey, m.EphemeralPubkeyExpiry, m.Proof, m.ProofArgs, time.Now()).
		Scan(&m.CreatedAt)
	if err != nil {
		return nil, apperr.Store(err)
	}

	if oldPubkey != "" && oldPubkey != m.EphemeralPubkey {
		s.cache.InvalidateMembership(ctx, oldPubkey, m.GroupID, m.Provider)
	}
	s.cache.SetMembership(ctx, m)

	return &m, nil
}

func (s *Store) GetMembership(ctx context.Context, pubkey, groupID, provider string) (*models.Membership, error) {
	if m, ok := s.cache.GetMembership(ctx, pubkey, groupID, provider); ok {
		return m, nil
	}

	var m models.Membership
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, anon_group_id, anon_group_provider, ephemeral_pubkey,
			ephemeral_pubkey_expiry, proof, proof_args, created_at
		FROM memberships
		WHERE ephemeral_pubkey = $1 AND anon_group_id = $2 AND anon_group_provider = $3`,
		pubkey, groupID, provider).Scan(
		&m.UserID, &m.GroupID, &m.Provider, &m.EphemeralPubkey,
		&m.EphemeralPubkeyExpiry, &m.Proof, &m.ProofArgs, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrMembershipNotFound
	}
	if err != nil {
		return nil, apperr.Store(err)
	}

	s.cache.SetMembership(ctx, m)
	return &m, nil
}

func (s *Store) ListMemberships(ctx context.Context, filter storage.MembershipFilter) ([]models.Membership, error) {
	query := `
		SELECT user_id, anon_group_id, anon_group_provider, ephemeral_pubkey,
			ephemeral_pubkey_expiry, proof, proof_args, created_at
		FROM memberships WHERE 1=1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += ` AND user_id = $` + strconv.Itoa(len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += ` AND anon_group_id = $` + strconv.Itoa(len(args))
	}
	if filter.Provider != "" {
		args = append(args, filter.Provider)
		query += ` AND anon_group_provider = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Provider, &m.EphemeralPubkey,
			&m.EphemeralPubkeyExpiry, &m.Proof, &m.ProofArgs, &m.CreatedAt); err != nil {
			return nil, apperr.Store(err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return memberships, nil
}

func (s *Store) IsGroupMember(ctx context.Context, pubkey, groupID string, now time.Time) (bool, error) {
	if member, ok := s.cache.GetGroupMember(ctx, pubkey, groupID); ok {
		return member, nil
	}

	var expiry time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT ephemeral_pubkey_expiry FROM memberships
		WHERE ephemeral_pubkey = $1 AND anon_group_id = $2
		ORDER BY ephemeral_pubkey_expiry DESC LIMIT 1`,
		pubkey, groupID).Scan(&expiry)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store(err)
	}

	member := expiry.After(now)
	if member {
		s.cache.SetGroupMember(ctx, pubkey, groupID, true, expiry)
	}
	s.logger.Debug("group membership check",
		zap.String("group_id", groupID), zap.Bool("member", member))
	return member, nil
}
