package record

import "time"

// Clinical entity collections carried in a transfer payload. Each entity has
// an id unique within its collection and a patientId foreign key; ids are
// assigned by the authoring device and never rewritten on import.

type MedicalRecord struct {
	ID        string    `json:"id" bson:"_id"`
	PatientID string    `json:"patientId" bson:"patient_id"`
	DoctorID  string    `json:"doctorId" bson:"doctor_id"`
	Diagnosis string    `json:"diagnosis" bson:"diagnosis"`
	Symptoms  string    `json:"symptoms" bson:"symptoms"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

func (r MedicalRecord) EntityID() string { return r.ID }

type Prescription struct {
	ID           string    `json:"id" bson:"_id"`
	RecordID     string    `json:"recordId" bson:"record_id"`
	PatientID    string    `json:"patientId" bson:"patient_id"`
	DoctorID     string    `json:"doctorId" bson:"doctor_id"`
	Medication   string    `json:"medication" bson:"medication"`
	Dosage       string    `json:"dosage" bson:"dosage"`
	Frequency    string    `json:"frequency" bson:"frequency"`
	Duration     string    `json:"duration" bson:"duration"`
	Instructions string    `json:"instructions,omitempty" bson:"instructions,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

func (p Prescription) EntityID() string { return p.ID }

type Appointment struct {
	ID        string    `json:"id" bson:"_id"`
	PatientID string    `json:"patientId" bson:"patient_id"`
	DoctorID  string    `json:"doctorId" bson:"doctor_id"`
	Date      string    `json:"date" bson:"date"`
	Time      string    `json:"time" bson:"time"`
	Type      string    `json:"type" bson:"type"`     // checkup, followup, emergency, consultation
	Status    string    `json:"status" bson:"status"` // scheduled, completed, cancelled, no-show
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

func (a Appointment) EntityID() string { return a.ID }

type LabResult struct {
	ID          string    `json:"id" bson:"_id"`
	PatientID   string    `json:"patientId" bson:"patient_id"`
	DoctorID    string    `json:"doctorId" bson:"doctor_id"`
	TestName    string    `json:"testName" bson:"test_name"`
	TestType    string    `json:"testType" bson:"test_type"` // blood, urine, xray, mri, ct, other
	Result      string    `json:"result" bson:"result"`
	NormalRange string    `json:"normalRange,omitempty" bson:"normal_range,omitempty"`
	Status      string    `json:"status" bson:"status"` // pending, completed, abnormal
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
	TestDate    string    `json:"testDate" bson:"test_date"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

func (l LabResult) EntityID() string { return l.ID }

// VitalsReading is a point-in-time measurement; unlike the other entities it
// carries a single recordedAt/recordedBy pair instead of created/updated.
type VitalsReading struct {
	ID               string    `json:"id" bson:"_id"`
	PatientID        string    `json:"patientId" bson:"patient_id"`
	BloodPressure    string    `json:"bloodPressure,omitempty" bson:"blood_pressure,omitempty"`
	HeartRate        int       `json:"heartRate,omitempty" bson:"heart_rate,omitempty"`
	Temperature      float64   `json:"temperature,omitempty" bson:"temperature,omitempty"`
	Weight           float64   `json:"weight,omitempty" bson:"weight,omitempty"`
	Height           float64   `json:"height,omitempty" bson:"height,omitempty"`
	OxygenSaturation int       `json:"oxygenSaturation,omitempty" bson:"oxygen_saturation,omitempty"`
	RecordedAt       time.Time `json:"recordedAt" bson:"recorded_at"`
	RecordedBy       string    `json:"recordedBy" bson:"recorded_by"`
}

func (v VitalsReading) EntityID() string { return v.ID }
