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

func (s *Store) Migrate() error {
	migrations := []string{
		// Memberships: one live row per (subject, group, provider).
		// The subject id is derived from the pubkey, so re-registering
		// with a rotated key lands on the same row and replaces it.
		`CREATE TABLE IF NOT EXISTS memberships (
			user_id VARCHAR(255) NOT NULL,
			anon_group_id VARCHAR(255) NOT NULL,
			anon_group_provider VARCHAR(64) NOT NULL,
			ephemeral_pubkey TEXT NOT NULL,
			ephemeral_pubkey_expiry TIMESTAMPTZ NOT NULL,
			proof BYTEA NOT NULL,
			proof_args JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, anon_group_id, anon_group_provider)
		)`,

		// Posting and feed authorization look memberships up by pubkey.
		`CREATE INDEX IF NOT EXISTS idx_memberships_pubkey
		ON memberships(ephemeral_pubkey, anon_group_id)`,

		// Messages: id is client-generated, making retried inserts
		// idempotent. likes is derived from the likes table, never
		// incremented in place.
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(255) PRIMARY KEY,
			anon_group_id VARCHAR(255) NOT NULL,
			anon_group_provider VARCHAR(64) NOT NULL,
			text TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			internal BOOLEAN NOT NULL DEFAULT FALSE,
			signature TEXT NOT NULL,
			ephemeral_pubkey TEXT NOT NULL,
			ephemeral_pubkey_expiry TIMESTAMPTZ NOT NULL,
			likes INTEGER NOT NULL DEFAULT 0
		)`,

		// Feed reads: newest-first within (group, internal).
		`CREATE INDEX IF NOT EXISTS idx_messages_feed
		ON messages(anon_group_id, internal, timestamp DESC)`,

		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp
		ON messages(internal, timestamp DESC)`,

		// Likes: the primary key is the uniqueness constraint that
		// collapses concurrent duplicate likes into one row.
		`CREATE TABLE IF NOT EXISTS likes (
			message_id VARCHAR(255) NOT NULL,
			user_ephemeral_pubkey TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (message_id, user_ephemeral_pubkey),
			FOREIGN KEY (message_id) REFERENCES messages(id) ON DELETE CASCADE
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
