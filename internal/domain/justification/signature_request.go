package justification

import (
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
)

// Signature request states
const (
	SignatureStatusPending = "pending"
	SignatureStatusSigned  = "signed"
)

// ClientSignatureRequest is a one-time link that lets a client sign their packet.
type ClientSignatureRequest struct {
	ID                   uint
	ClientID             uint
	Token                string
	PacketFilename       string
	SignedPacketFilename *string
	Status               string
	CreatedAt            time.Time
	SignedAt             *time.Time
}

// NewClientSignatureRequest creates a pending request for the given packet
func NewClientSignatureRequest(clientID uint, token, packetFilename string, now time.Time) *ClientSignatureRequest {
	return &ClientSignatureRequest{
		ClientID:       clientID,
		Token:          token,
		PacketFilename: packetFilename,
		Status:         SignatureStatusPending,
		CreatedAt:      now.UTC(),
	}
}

// IsOpen reports whether the link can still be used
func (r *ClientSignatureRequest) IsOpen() bool {
	return r.Status == SignatureStatusPending && r.SignedAt == nil
}

// Complete marks the request signed
func (r *ClientSignatureRequest) Complete(signedFilename string, now time.Time) error {
	if !r.IsOpen() {
		return shared.ErrSignatureRequestCompleted
	}
	signedAt := now.UTC()
	r.SignedPacketFilename = &signedFilename
	r.Status = SignatureStatusSigned
	r.SignedAt = &signedAt
	return nil
}
