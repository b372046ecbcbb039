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

	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/apperr"
)

// ToggleLike flips a like fact and recounts inside one transaction. The
// FOR UPDATE on the message row serializes concurrent toggles on the
// same message, so every commit stores a count derived from the rows it
// could actually see. Two stale snapshots can never overwrite each
// other: the second toggle blocks until the first commits.
func (s *Store) ToggleLike(ctx context.Context, messageID, pubkey string, like bool) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, apperr.Store(err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM messages WHERE id = $1 FOR UPDATE`, messageID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, 0, apperr.ErrMessageNotFound
	}
	if err != nil {
		return false, 0, apperr.Store(err)
	}

	if like {
		// The primary key makes a repeat like a no-op.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO likes (message_id, user_ephemeral_pubkey)
			VALUES ($1, $2)
			ON CONFLICT (message_id, user_ephemeral_pubkey) DO NOTHING`,
			messageID, pubkey)
	} else {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM likes
			WHERE message_id = $1 AND user_ephemeral_pubkey = $2`,
			messageID, pubkey)
	}
	if err != nil {
		return false, 0, apperr.Store(err)
	}

	// Authoritative recount from the fact rows, never an increment.
	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE message_id = $1`, messageID).Scan(&count)
	if err != nil {
		return false, 0, apperr.Store(err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE messages SET likes = $1 WHERE id = $2`, count, messageID); err != nil {
		return false, 0, apperr.Store(err)
	}

	if err = tx.Commit(); err != nil {
		return false, 0, apperr.Store(err)
	}

	s.logger.Debug("like toggled",
		zap.String("message_id", messageID), zap.Bool("liked", like), zap.Int("likes", count))
	return like, count, nil
}
