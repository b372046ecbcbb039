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

package ephemeral

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealthnote/stealthnote/backend/models"
)

func testMessage(t *testing.T) (*Key, *models.SignedMessage) {
	t.Helper()
	key, err := Generate(time.Hour)
	require.NoError(t, err)

	msg := &models.SignedMessage{
		ID:        "m1",
		GroupID:   "acme.com",
		Provider:  "google-oauth",
		Text:      "hello from nobody",
		Timestamp: time.Now().Truncate(time.Millisecond),
		Internal:  false,
	}
	msg.Signature = key.SignMessage(msg)
	return key, msg
}

func TestSignAndVerify(t *testing.T) {
	_, msg := testMessage(t)
	require.NoError(t, VerifyMessageSignature(msg))
}

func TestVerifyRejectsTamperedFields(t *testing.T) {
	tamper := map[string]func(*models.SignedMessage){
		"text":      func(m *models.SignedMessage) { m.Text = "edited" },
		"group":     func(m *models.SignedMessage) { m.GroupID = "evil.com" },
		"internal":  func(m *models.SignedMessage) { m.Internal = true },
		"timestamp": func(m *models.SignedMessage) { m.Timestamp = m.Timestamp.Add(time.Second) },
		"id":        func(m *models.SignedMessage) { m.ID = "m2" },
	}
	for name, mutate := range tamper {
		t.Run(name, func(t *testing.T) {
			_, msg := testMessage(t)
			mutate(msg)
			assert.Error(t, VerifyMessageSignature(msg))
		})
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	other, err := Generate(time.Hour)
	require.NoError(t, err)

	_, msg := testMessage(t)
	msg.EphemeralPubkey = other.Pubkey
	assert.Error(t, VerifyMessageSignature(msg))
}

func TestVerifyRejectsMalformedNumerics(t *testing.T) {
	_, msg := testMessage(t)

	bad := *msg
	bad.EphemeralPubkey = "not-a-number"
	assert.Error(t, VerifyMessageSignature(&bad))

	bad = *msg
	bad.Signature = "-12345"
	assert.Error(t, VerifyMessageSignature(&bad))
}

func TestBigIntCodecRoundTrip(t *testing.T) {
	// Leading zero bytes must survive the integer round trip.
	raw := make([]byte, PubkeySize)
	raw[0] = 0
	raw[1] = 0
	raw[31] = 7

	decoded, err := DecodeBigInt(EncodeBigInt(raw), PubkeySize)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDecodeBigIntRejectsOversize(t *testing.T) {
	huge := strings.Repeat("9", 100)
	_, err := DecodeBigInt(huge, PubkeySize)
	assert.Error(t, err)
}

func TestExpired(t *testing.T) {
	key, err := Generate(time.Hour)
	require.NoError(t, err)

	assert.False(t, key.Expired(time.Now()))
	assert.True(t, key.Expired(key.Expiry))
	assert.True(t, key.Expired(key.Expiry.Add(time.Minute)))
}

func TestSubjectIDStableAndDistinct(t *testing.T) {
	assert.Equal(t, SubjectID("7"), SubjectID("7"))
	assert.NotEqual(t, SubjectID("7"), SubjectID("9"))
	assert.True(t, strings.HasPrefix(SubjectID("7"), "user_"))
}
