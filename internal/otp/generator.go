package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// CodeLength is the number of decimal digits in a transfer code.
	CodeLength = 6

	// DefaultTTL is the canonical validity window for a transfer code.
	DefaultTTL = 15 * time.Minute
)

// Code space is [100000, 999999]. The lower bound guarantees six digits by
// construction, so no zero-padding is ever needed.
const (
	codeMin  = 100000
	codeSpan = 900000
)

// Generate produces a 6-digit transfer code from a uniform random source.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to draw random code: %w", err)
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}

// NewSession binds a freshly generated code to a patient for the given TTL.
// Persistence of the returned session is the caller's responsibility.
func NewSession(patientID, patientName string, ttl time.Duration) (Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	code, err := Generate()
	if err != nil {
		return Session{}, err
	}
	now := time.Now()
	return Session{
		Code:        code,
		PatientID:   patientID,
		PatientName: patientName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}
