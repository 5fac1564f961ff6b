package patient

import (
	"errors"
	"time"
)

var (
	ErrMissingID          = errors.New("patient id is required")
	ErrInvalidPatientData = errors.New("invalid patient data")
)

// Patient is the identity record every other entity joins against. The ID is
// an opaque stable string owned by the issuing device.
type Patient struct {
	ID          string    `json:"id" bson:"_id"`
	FirstName   string    `json:"firstName" bson:"first_name"`
	LastName    string    `json:"lastName" bson:"last_name"`
	DateOfBirth string    `json:"dateOfBirth" bson:"date_of_birth"`
	Gender      string    `json:"gender" bson:"gender"`
	PhoneNumber string    `json:"phoneNumber" bson:"phone_number"`
	BloodType   string    `json:"bloodType,omitempty" bson:"blood_type,omitempty"`
	Allergies   []string  `json:"allergies,omitempty" bson:"allergies,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

func (p Patient) EntityID() string {
	return p.ID
}

func (p Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Validate performs basic validation of patient data
func (p *Patient) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.FirstName == "" && p.LastName == "" {
		return ErrInvalidPatientData
	}
	return nil
}
