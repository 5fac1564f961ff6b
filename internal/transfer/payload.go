package transfer

import (
	"time"

	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/record"
)

// SignaturePlaceholder marks intent to verify payload integrity without
// performing a real check. Replacing it with a keyed MAC over the canonical
// payload bytes, bound to the code, would not change the wire shape.
const SignaturePlaceholder = "encrypted_signature_here"

// Payload is the unit exchanged between devices, serialized as JSON for QR
// encoding or clipboard transport. It is immutable once created; a new
// transfer always produces a new payload bound to a new code.
type Payload struct {
	OTP           string                 `json:"otp"`
	PatientID     string                 `json:"patientId"`
	PatientName   string                 `json:"patientName"`
	Patient       patient.Patient        `json:"patient"`
	Records       []record.MedicalRecord `json:"records"`
	Prescriptions []record.Prescription  `json:"prescriptions"`
	Appointments  []record.Appointment   `json:"appointments"`
	LabResults    []record.LabResult     `json:"labResults"`
	Vitals        []record.VitalsReading `json:"vitals"`
	GeneratedAt   time.Time              `json:"generatedAt"`
	ExpiresAt     time.Time              `json:"expiresAt"`
	Signature     string                 `json:"signature"`
}
