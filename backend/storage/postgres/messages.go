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

	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/models"
	"github.com/stealthnote/stealthnote/backend/storage"
)

func (s *Store) InsertMessage(ctx context.Context, msg models.SignedMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, anon_group_id, anon_group_provider, text,
			timestamp, internal, signature, ephemeral_pubkey, ephemeral_pubkey_expiry, likes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)`,
		msg.ID, msg.GroupID, msg.Provider, msg.Text,
		msg.Timestamp, msg.Internal, msg.Signature,
		msg.EphemeralPubkey, msg.EphemeralPubkeyExpiry)
	if uniqueViolation(err) {
		// A retry of an already-admitted message. The stored row was
		// verified the first time around; nothing to do.
		s.logger.Debug("duplicate message insert treated as success",
			zap.String("message_id", msg.ID))
		return nil
	}
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}

const messageColumns = `id, anon_group_id, anon_group_provider, text,
	timestamp, internal, signature, ephemeral_pubkey, ephemeral_pubkey_expiry, likes`

func scanMessage(row interface{ Scan(...interface{}) error }) (*models.SignedMessage, error) {
	var m models.SignedMessage
	err := row.Scan(&m.ID, &m.GroupID, &m.Provider, &m.Text,
		&m.Timestamp, &m.Internal, &m.Signature,
		&m.EphemeralPubkey, &m.EphemeralPubkeyExpiry, &m.Likes)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.SignedMessage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return m, nil
}

func (s *Store) ListMessages(ctx context.Context, q storage.MessageQuery) ([]models.SignedMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE internal = $1`
	args := []interface{}{q.Internal}

	if q.GroupID != "" {
		args = append(args, q.GroupID)
		query += ` AND anon_group_id = $` + strconv.Itoa(len(args))
	}
	if q.After != nil {
		args = append(args, *q.After)
		query += ` AND timestamp > $` + strconv.Itoa(len(args))
	}
	if q.Before != nil {
		args = append(args, *q.Before)
		query += ` AND timestamp < $` + strconv.Itoa(len(args))
	}

	args = append(args, q.Limit)
	query += ` ORDER BY timestamp DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	messages := []models.SignedMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return messages, nil
}
