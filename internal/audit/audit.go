package audit

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventOTPGenerated     EventType = "OTP_GENERATED"
	EventTransferEncoded  EventType = "TRANSFER_ENCODED"
	EventTransferReceived EventType = "TRANSFER_RECEIVED"
	EventOTPVerified      EventType = "OTP_VERIFIED"
	EventOTPRejected      EventType = "OTP_REJECTED"
	EventMergeApplied     EventType = "MERGE_APPLIED"
	EventLogin            EventType = "LOGIN"
)

// Event is one entry in the device-local transfer audit trail.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType EventType              `json:"event_type"`
	UserID    string                 `json:"user_id"`
	PatientID string                 `json:"patient_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Status    string                 `json:"status"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type Service interface {
	LogEvent(ctx context.Context, event *Event) error
}

type service struct {
	logger *logrus.Logger
}

// NewService writes structured audit events to w, or stderr when w is nil.
func NewService(w io.Writer) Service {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if w != nil {
		logger.SetOutput(w)
	} else {
		logger.SetOutput(os.Stderr)
	}
	return &service{logger: logger}
}

func (s *service) LogEvent(_ context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fields := logrus.Fields{
		"event_type": event.EventType,
		"user_id":    event.UserID,
		"status":     event.Status,
		"timestamp":  event.Timestamp.Format(time.RFC3339),
	}
	if event.PatientID != "" {
		fields["patient_id"] = event.PatientID
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	for k, v := range event.Details {
		fields[k] = v
	}

	s.logger.WithFields(fields).Info("Audit event logged")
	return nil
}
