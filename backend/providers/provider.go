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

// Package providers holds the per-group membership proof verifiers. A
// proof is an opaque blob attesting that whoever holds the ephemeral key
// belongs to the group; each provider knows how to check its own blobs.
// The registry is the only dispatch point: unknown providers, panics and
// expired keys all resolve to rejection, never default-accept.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stealthnote/stealthnote/backend/apperr"
)

type Provider interface {
	Name() string

	// Verify checks that proof attests membership of groupID, bound to
	// the given ephemeral pubkey and expiry. A nil return means the
	// proof is valid; any error means rejection.
	Verify(ctx context.Context, proof []byte, groupID, pubkey string, expiry time.Time, proofArgs json.RawMessage) error
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Verify dispatches to the named provider, failing closed. The expiry
// check runs first so expired keys never reach the expensive
// cryptographic path.
func (r *Registry) Verify(ctx context.Context, providerName string, proof []byte, groupID, pubkey string, expiry time.Time, proofArgs json.RawMessage) (err error) {
	if !expiry.After(time.Now()) {
		return apperr.ErrExpiredKey
	}

	p, ok := r.providers[providerName]
	if !ok {
		return apperr.ErrUnknownProvider
	}

	// A panicking verifier is a rejection, not a crash.
	defer func() {
		if rec := recover(); rec != nil {
			err = apperr.ErrProofRejected(fmt.Errorf("verifier panic: %v", rec))
		}
	}()

	if verr := p.Verify(ctx, proof, groupID, pubkey, expiry, proofArgs); verr != nil {
		return apperr.ErrProofRejected(verr)
	}
	return nil
}
