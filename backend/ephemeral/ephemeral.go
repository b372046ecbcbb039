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

// Package ephemeral implements the short-lived keypairs clients post
// with. Keys and signatures are ed25519 but travel as decimal
// big-integer strings, so the server treats them as opaque numerics
// until verification time.
package ephemeral

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/stealthnote/stealthnote/backend/apperr"
	"github.com/stealthnote/stealthnote/backend/models"
)

const (
	PubkeySize    = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
)

// Key is a client-held ephemeral keypair. The private half never leaves
// the client; the server only ever sees Pubkey and Expiry. It lives here
// so tests and client tooling can produce real signatures.
type Key struct {
	Pubkey string
	Expiry time.Time

	priv ed25519.PrivateKey
}

func Generate(validFor time.Duration) (*Key, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Key{
		Pubkey: EncodeBigInt(pub),
		Expiry: time.Now().Add(validFor).Truncate(time.Second),
		priv:   priv,
	}, nil
}

func (k *Key) Expired(now time.Time) bool {
	return !now.Before(k.Expiry)
}

// SignMessage signs the canonical payload of m and returns the signature
// as a decimal big-integer string. The message's pubkey and expiry are
// overwritten with this key's, since the signature only binds to them.
func (k *Key) SignMessage(m *models.SignedMessage) string {
	m.EphemeralPubkey = k.Pubkey
	m.EphemeralPubkeyExpiry = k.Expiry
	sig := ed25519.Sign(k.priv, SigningPayload(m))
	return EncodeBigInt(sig)
}

// SigningPayload recomputes the canonical byte string a message
// signature covers. It is derived from the message's own fields, never
// from a client-supplied digest. Text goes last because it is the only
// unconstrained field.
func SigningPayload(m *models.SignedMessage) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%d|%t|%s",
		m.ID, m.GroupID, m.Provider, m.Timestamp.UnixMilli(), m.Internal, m.Text))
}

// VerifyMessageSignature checks that m.Signature was produced over the
// canonical payload by the private half of m.EphemeralPubkey.
func VerifyMessageSignature(m *models.SignedMessage) error {
	pub, err := DecodeBigInt(m.EphemeralPubkey, PubkeySize)
	if err != nil {
		return apperr.ErrInvalidSignature
	}
	sig, err := DecodeBigInt(m.Signature, SignatureSize)
	if err != nil {
		return apperr.ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), SigningPayload(m), sig) {
		return apperr.ErrInvalidSignature
	}
	return nil
}

// SubjectID derives the stable, non-identifying subject for a pubkey.
// Hashing keeps the raw key out of the membership primary key.
func SubjectID(pubkey string) string {
	sum := sha3.Sum256([]byte(pubkey))
	return "user_" + hex.EncodeToString(sum[:])[:16]
}

// Nonce binds a pubkey and expiry into a single value a provider can
// embed in its attestation (e.g. the OIDC nonce claim).
func Nonce(pubkey string, expiry time.Time) string {
	sum := sha3.Sum256([]byte(fmt.Sprintf("%s|%d", pubkey, expiry.Unix())))
	return hex.EncodeToString(sum[:])
}

// EncodeBigInt renders raw big-endian bytes as a decimal string.
func EncodeBigInt(b []byte) string {
	return new(big.Int).SetBytes(b).String()
}

// DecodeBigInt parses a decimal string into exactly size big-endian
// bytes, restoring any leading zeros the integer form dropped.
func DecodeBigInt(s string, size int) ([]byte, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer")
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative value")
	}
	if n.BitLen() > size*8 {
		return nil, fmt.Errorf("value exceeds %d bytes", size)
	}
	out := make([]byte, size)
	n.FillBytes(out)
	return out, nil
}
