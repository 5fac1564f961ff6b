package otp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session is a one-time transfer authorization. It is mutated exactly once,
// from unused to used, by a successful verification; expiry makes it inert
// without erasing it.
type Session struct {
	Code        string          `json:"code" bson:"_id"`
	PatientID   string          `json:"patientId" bson:"patient_id"`
	PatientName string          `json:"patientName" bson:"patient_name"`
	Payload     json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" bson:"created_at"`
	ExpiresAt   time.Time       `json:"expiresAt" bson:"expires_at"`
	Used        bool            `json:"used" bson:"used"`
}

// Expired reports whether the session's validity window has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Live reports whether the session can still authorize a transfer.
func (s *Session) Live(now time.Time) bool {
	return !s.Used && !s.Expired(now)
}

// Remaining formats the time left before expiry as m:ss for display on the
// sending device.
func (s *Session) Remaining(now time.Time) string {
	d := s.ExpiresAt.Sub(now)
	if d <= 0 {
		return "Expired"
	}
	minutes := int(d / time.Minute)
	seconds := int(d/time.Second) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
