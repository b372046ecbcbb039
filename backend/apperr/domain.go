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

package apperr

var (
	ErrMissingFields      = Validation("missing required fields")
	ErrUnknownProvider    = Validation("unknown anon group provider")
	ErrInvalidProof       = Validation("proof verification failed")
	ErrExpiredKey         = New(CodeExpiredKey, "ephemeral pubkey expired")
	ErrMembershipRequired = New(CodeMembershipMismatch, "no membership registered for this key")
	ErrMembershipMismatch = New(CodeMembershipMismatch, "membership does not match the claimed key")
	ErrInvalidSignature   = New(CodeInvalidSignature, "message signature check failed")
	ErrMessageNotFound    = NotFound("message not found")
	ErrMembershipNotFound = NotFound("membership not found")
	ErrAuthRequired       = Unauthenticated("authorization required")
	ErrNotGroupMember     = Forbidden("public key is not a member of this group")
	ErrGroupIDRequired    = Validation("group id is required for internal messages")
)

func ErrProofRejected(cause error) error {
	return Wrap(CodeValidation, "proof verification failed", cause)
}
