package transfer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/record"
)

// ParseKind classifies decode failures so the caller can tell the user
// whether to rescan or re-enter the data.
type ParseKind string

const (
	MalformedJSON  ParseKind = "malformed_json"
	SchemaMismatch ParseKind = "schema_mismatch"
)

type ParseError struct {
	Kind   ParseKind
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse payload: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse payload: %s: %s", e.Kind, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Encode assembles a payload from a patient's record set and an active
// session, stamping generatedAt and inheriting the session's expiry.
func Encode(p patient.Patient, records []record.MedicalRecord, prescriptions []record.Prescription,
	appointments []record.Appointment, labResults []record.LabResult, vitals []record.VitalsReading,
	sess otp.Session) Payload {
	return Payload{
		OTP:           sess.Code,
		PatientID:     p.ID,
		PatientName:   p.FullName(),
		Patient:       p,
		Records:       nonNil(records),
		Prescriptions: nonNil(prescriptions),
		Appointments:  nonNil(appointments),
		LabResults:    nonNil(labResults),
		Vitals:        nonNil(vitals),
		GeneratedAt:   timeNow(),
		ExpiresAt:     sess.ExpiresAt,
		Signature:     SignaturePlaceholder,
	}
}

// Serialize renders a payload as canonical JSON text, suitable for both QR
// encoding and clipboard transport.
func Serialize(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("serialize payload: %w", err)
	}
	return string(b), nil
}

// Decode parses inbound payload text. It validates shape only; expiry and
// single-use are the verifier's concern, keeping parsing and authorization
// separate. Absent collections decode as empty so payloads from older
// producers remain acceptable.
func Decode(text string) (*Payload, error) {
	var wire struct {
		OTP           string                 `json:"otp"`
		PatientID     string                 `json:"patientId"`
		PatientName   string                 `json:"patientName"`
		Patient       *patient.Patient       `json:"patient"`
		Records       []record.MedicalRecord `json:"records"`
		Prescriptions []record.Prescription  `json:"prescriptions"`
		Appointments  []record.Appointment   `json:"appointments"`
		LabResults    []record.LabResult     `json:"labResults"`
		Vitals        []record.VitalsReading `json:"vitals"`
		GeneratedAt   time.Time              `json:"generatedAt"`
		ExpiresAt     time.Time              `json:"expiresAt"`
		Signature     string                 `json:"signature"`
	}

	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, &ParseError{Kind: MalformedJSON, Err: err}
	}
	if wire.Patient == nil {
		return nil, &ParseError{Kind: SchemaMismatch, Reason: "missing patient"}
	}
	if wire.OTP == "" {
		return nil, &ParseError{Kind: SchemaMismatch, Reason: "missing otp"}
	}

	return &Payload{
		OTP:           wire.OTP,
		PatientID:     wire.PatientID,
		PatientName:   wire.PatientName,
		Patient:       *wire.Patient,
		Records:       nonNil(wire.Records),
		Prescriptions: nonNil(wire.Prescriptions),
		Appointments:  nonNil(wire.Appointments),
		LabResults:    nonNil(wire.LabResults),
		Vitals:        nonNil(wire.Vitals),
		GeneratedAt:   wire.GeneratedAt,
		ExpiresAt:     wire.ExpiresAt,
		Signature:     wire.Signature,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Overridable clock for tests.
var timeNow = time.Now
