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
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"go.uber.org/zap"

	redisStore "github.com/stealthnote/stealthnote/backend/storage/redis"
)

type Store struct {
	db     *sql.DB
	cache  *redisStore.MembershipCache
	logger *zap.Logger
}

// NewStore wraps a postgres connection. cache may be nil; membership
// lookups then always hit the database.
func NewStore(db *sql.DB, cache *redisStore.MembershipCache, logger *zap.Logger) *Store {
	return &Store{db: db, cache: cache, logger: logger}
}

// uniqueViolation is postgres error class 23505, raised when an insert
// trips a uniqueness constraint.
func uniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
