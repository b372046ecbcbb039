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

package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/stealthnote/stealthnote/backend/config"
	"github.com/stealthnote/stealthnote/backend/handlers"
	"github.com/stealthnote/stealthnote/backend/logger"
	"github.com/stealthnote/stealthnote/backend/middleware"
	"github.com/stealthnote/stealthnote/backend/providers"
	"github.com/stealthnote/stealthnote/backend/storage/postgres"
	redisStore "github.com/stealthnote/stealthnote/backend/storage/redis"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis is optional; without it membership lookups run uncached.
	var cache *redisStore.MembershipCache
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		cache = redisStore.NewMembershipCache(rdb)
	}

	// Initialize storage
	store := postgres.NewStore(db, cache, zlog)

	// Run migrations
	if err := store.Migrate(); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Proof providers, one per anonymity-group attestation scheme
	registry := providers.NewRegistry(
		providers.NewGoogleProvider(
			providers.HMACKeyfunc([]byte(cfg.GoogleJWTSecret)),
			cfg.GoogleJWTIssuer,
		),
	)

	if cfg.SkipProofVerification {
		zlog.Warn("SKIP_PROOF_VERIFICATION is set: membership proofs will NOT be checked")
	}
	if cfg.AllowUnverifiedMembership {
		zlog.Warn("ALLOW_UNVERIFIED_MEMBERSHIP is set: messages may be admitted without a membership row")
	}

	// Initialize handlers
	membershipHandler := handlers.NewMembershipHandler(store, registry, cfg, zlog)
	messageHandler := handlers.NewMessageHandler(store, cfg, zlog)
	likeHandler := handlers.NewLikeHandler(store, zlog)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.BearerPubkey)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/memberships", membershipHandler.CreateMembership).Methods("POST")
	api.HandleFunc("/memberships", membershipHandler.ListMemberships).Methods("GET")

	api.HandleFunc("/messages", messageHandler.PostMessage).Methods("POST")
	api.HandleFunc("/messages", messageHandler.FetchMessages).Methods("GET")
	api.HandleFunc("/messages/{id}", messageHandler.GetMessage).Methods("GET")
	api.HandleFunc("/messages/{id}/like", likeHandler.ToggleLike).Methods("POST")

	// Health check (no auth required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	zlog.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		zlog.Fatal("Server failed to start", zap.Error(err))
	}
}
