package merge

import (
	"fmt"
	"time"

	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/record"
	"github.com/mdawahq/mdawa-transfer/internal/transfer"
)

// Dataset holds the receiver's per-collection arrays, keyed the way the
// local store keys them.
type Dataset struct {
	Patients       []patient.Patient      `json:"patients"`
	MedicalRecords []record.MedicalRecord `json:"medicalRecords"`
	Prescriptions  []record.Prescription  `json:"prescriptions"`
	Appointments   []record.Appointment   `json:"appointments"`
	LabResults     []record.LabResult     `json:"labResults"`
	Vitals         []record.VitalsReading `json:"vitals"`
}

// Report summarizes a transfer apply. Skipped lists entities dropped for
// missing ids, as collection[index] references; the rest of the transfer
// still commits (partial success, never abort for one bad record).
type Report struct {
	PatientID      string   `json:"patientId"`
	PatientUpdated bool     `json:"patientUpdated"`
	Added          int      `json:"added"`
	Replaced       int      `json:"replaced"`
	Skipped        []string `json:"skipped,omitempty"`
}

type entity interface {
	EntityID() string
}

// Collection upserts incoming entities into existing by id: a matching id
// replaces in place, preserving position; a novel id appends. Nothing is
// ever deleted. Entities without an id are skipped and their indices
// returned.
func Collection[T entity](existing, incoming []T) (merged []T, replaced, added int, skipped []int) {
	merged = append([]T(nil), existing...)
	for i, in := range incoming {
		id := in.EntityID()
		if id == "" {
			skipped = append(skipped, i)
			continue
		}
		found := false
		for j := range merged {
			if merged[j].EntityID() == id {
				merged[j] = in
				found = true
				break
			}
		}
		if found {
			replaced++
		} else {
			merged = append(merged, in)
			added++
		}
	}
	return merged, replaced, added, skipped
}

// Patients merges one incoming patient into the existing list. A matching id
// is fully replaced (last-writer-wins on the whole record) with a fresh
// updatedAt; a new patient keeps its own timestamps.
func Patients(existing []patient.Patient, incoming patient.Patient, now time.Time) ([]patient.Patient, bool) {
	out := append([]patient.Patient(nil), existing...)
	for i := range out {
		if out[i].ID == incoming.ID {
			incoming.UpdatedAt = now
			out[i] = incoming
			return out, true
		}
	}
	return append(out, incoming), false
}

// Apply merges a decoded payload into the receiver's dataset. It is pure:
// the caller loads the dataset beforehand and persists the result, so the
// whole apply is atomic with respect to a single caller. Consuming the code
// is the verifier's job and must precede the apply.
func Apply(existing Dataset, p transfer.Payload, now time.Time) (Dataset, Report) {
	report := Report{PatientID: p.Patient.ID}

	out := existing
	out.Patients, report.PatientUpdated = Patients(existing.Patients, p.Patient, now)

	mergeInto(&out.MedicalRecords, p.Records, "records", &report)
	mergeInto(&out.Prescriptions, p.Prescriptions, "prescriptions", &report)
	mergeInto(&out.Appointments, p.Appointments, "appointments", &report)
	mergeInto(&out.LabResults, p.LabResults, "labResults", &report)
	mergeInto(&out.Vitals, p.Vitals, "vitals", &report)

	return out, report
}

func mergeInto[T entity](dst *[]T, incoming []T, name string, report *Report) {
	merged, replaced, added, skipped := Collection(*dst, incoming)
	*dst = merged
	report.Replaced += replaced
	report.Added += added
	for _, i := range skipped {
		report.Skipped = append(report.Skipped, fmt.Sprintf("%s[%d]: missing id", name, i))
	}
}
