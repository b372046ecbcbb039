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

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stealthnote/stealthnote/backend/ephemeral"
)

const GoogleOAuth = "google-oauth"

// GoogleProvider verifies proofs for groups keyed by a Google Workspace
// domain. The proof blob is an ID token whose hd claim names the domain
// and whose nonce claim commits to the ephemeral pubkey and expiry, so a
// token minted for one key cannot register another.
//
// The keyfunc decides which signing keys are trusted. Production wires a
// JWKS-backed keyfunc; tests use a shared HMAC secret.
type GoogleProvider struct {
	keyfunc jwt.Keyfunc
	issuer  string
}

func NewGoogleProvider(keyfunc jwt.Keyfunc, issuer string) *GoogleProvider {
	return &GoogleProvider{keyfunc: keyfunc, issuer: issuer}
}

// HMACKeyfunc returns a keyfunc for shared-secret deployments. It pins
// the HMAC family so an attacker cannot downgrade the algorithm.
func HMACKeyfunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}
}

func (g *GoogleProvider) Name() string { return GoogleOAuth }

func (g *GoogleProvider) Verify(ctx context.Context, proof []byte, groupID, pubkey string, expiry time.Time, proofArgs json.RawMessage) error {
	if len(proof) == 0 {
		return fmt.Errorf("empty proof")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(string(proof), claims, g.keyfunc,
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
	)
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}

	hd, _ := claims["hd"].(string)
	if hd == "" || hd != groupID {
		return fmt.Errorf("hosted domain %q does not match group %q", hd, groupID)
	}

	nonce, _ := claims["nonce"].(string)
	if nonce != ephemeral.Nonce(pubkey, expiry) {
		return fmt.Errorf("nonce does not commit to the ephemeral key")
	}

	return nil
}
