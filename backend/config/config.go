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

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	AppEnv      string
	LogLevel    string
	DatabaseURL string
	RedisURL    string

	AllowedOrigins []string

	// SkipProofVerification disables membership proof checks on
	// registration. Deployments that set it run an open board; the
	// server logs a warning at startup and on every bypassed check.
	SkipProofVerification bool

	// AllowUnverifiedMembership lets messages through when no membership
	// row exists for the claimed key (legacy clients registered before
	// proof enforcement). Default off: posting requires a membership.
	AllowUnverifiedMembership bool

	GoogleJWTSecret string
	GoogleJWTIssuer string

	DefaultFetchLimit int
	MaxFetchLimit     int
}

func Load() *Config {
	// Missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	return &Config{
		Port:                      env("PORT", "8080"),
		AppEnv:                    env("APP_ENV", "development"),
		LogLevel:                  env("LOG_LEVEL", ""),
		DatabaseURL:               env("DATABASE_URL", "postgres://localhost/stealthnote?sslmode=disable"),
		RedisURL:                  env("REDIS_URL", ""),
		AllowedOrigins:            envList("ALLOWED_ORIGINS", "http://localhost:3000"),
		SkipProofVerification:     envBool("SKIP_PROOF_VERIFICATION"),
		AllowUnverifiedMembership: envBool("ALLOW_UNVERIFIED_MEMBERSHIP"),
		GoogleJWTSecret:           env("GOOGLE_JWT_SECRET", ""),
		GoogleJWTIssuer:           env("GOOGLE_JWT_ISSUER", "https://accounts.google.com"),
		DefaultFetchLimit:         envInt("DEFAULT_FETCH_LIMIT", 50),
		MaxFetchLimit:             envInt("MAX_FETCH_LIMIT", 100),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := env(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
