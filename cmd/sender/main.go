package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mdawahq/mdawa-transfer/internal/audit"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/qr"
	"github.com/mdawahq/mdawa-transfer/internal/record"
	"github.com/mdawahq/mdawa-transfer/internal/transfer"
)

// bundle is the patient-held record set the sending device keeps locally.
type bundle struct {
	Patient       patient.Patient        `json:"patient"`
	Records       []record.MedicalRecord `json:"records"`
	Prescriptions []record.Prescription  `json:"prescriptions"`
	Appointments  []record.Appointment   `json:"appointments"`
	LabResults    []record.LabResult     `json:"labResults"`
	Vitals        []record.VitalsReading `json:"vitals"`
}

func main() {
	bundlePath := flag.String("bundle", "", "Path to the patient bundle JSON file")
	ttlMinutes := flag.Int("ttl", 15, "Transfer code validity in minutes")
	outDir := flag.String("out", ".", "Directory for payload.txt and payload.png")
	qrSize := flag.Int("qr-size", qr.DefaultSize, "QR image size in pixels")
	flag.Parse()

	if *bundlePath == "" {
		log.Fatal("A patient bundle is required. Use -bundle")
	}

	raw, err := os.ReadFile(*bundlePath)
	if err != nil {
		log.Fatalf("Failed to read bundle: %v", err)
	}
	var b bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		log.Fatalf("Failed to parse bundle: %v", err)
	}
	if err := b.Patient.Validate(); err != nil {
		log.Fatalf("Invalid patient in bundle: %v", err)
	}

	session, err := otp.NewSession(b.Patient.ID, b.Patient.FullName(), time.Duration(*ttlMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("Failed to create transfer session: %v", err)
	}

	payload := transfer.Encode(b.Patient, b.Records, b.Prescriptions, b.Appointments, b.LabResults, b.Vitals, session)
	text, err := transfer.Serialize(payload)
	if err != nil {
		log.Fatalf("Failed to serialize payload: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o700); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	textPath := filepath.Join(*outDir, "payload.txt")
	if err := os.WriteFile(textPath, []byte(text), 0o600); err != nil {
		log.Fatalf("Failed to write payload text: %v", err)
	}
	imagePath := filepath.Join(*outDir, "payload.png")
	if err := qr.WriteFile(text, imagePath, *qrSize); err != nil {
		log.Fatalf("Failed to write QR image: %v", err)
	}

	auditService := audit.NewService(nil)
	_ = auditService.LogEvent(context.Background(), &audit.Event{
		EventType: audit.EventTransferEncoded,
		UserID:    b.Patient.ID,
		PatientID: b.Patient.ID,
		Status:    "success",
		Details: map[string]interface{}{
			"records":       len(payload.Records),
			"prescriptions": len(payload.Prescriptions),
		},
	})

	fmt.Printf("Transfer ready for %s\n", b.Patient.FullName())
	fmt.Printf("One-time code: %s\n", session.Code)
	fmt.Printf("Expires at:    %s (%s remaining)\n", session.ExpiresAt.Format(time.RFC3339), session.Remaining(time.Now()))
	fmt.Printf("Payload text:  %s\n", textPath)
	fmt.Printf("QR image:      %s\n", imagePath)
}
