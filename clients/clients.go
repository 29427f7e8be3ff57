package clients

import (
	"time"

	"github.com/healthsys/go-health-admin/cache"
	"github.com/healthsys/go-health-admin/users"
)

// Gender of a registered client
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// EnrollmentStatus tracks a client's standing within a program
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

// EnrolledProgram is a client's membership in a health program
type EnrolledProgram struct {
	ProgramID      string           `json:"programId"`
	EnrollmentDate string           `json:"enrollmentDate"`
	Status         EnrollmentStatus `json:"status"`
}

// Client is a registered health-records client
type Client struct {
	ID               string            `json:"id"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	DateOfBirth      string            `json:"dateOfBirth"`
	Gender           Gender            `json:"gender"`
	ContactNumber    string            `json:"contactNumber"`
	Email            string            `json:"email"`
	Address          string            `json:"address"`
	EmergencyContact string            `json:"emergencyContact"`
	RegistrationDate string            `json:"registrationDate"`
	Programs         []EnrolledProgram `json:"programs"`
}

// FormData is the payload for registering a client
type FormData struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	DateOfBirth      string `json:"dateOfBirth"`
	Gender           Gender `json:"gender"`
	ContactNumber    string `json:"contactNumber"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergencyContact"`
}

// Validate checks the form before any network call
func (f *FormData) Validate() error {
	errs := make(users.FieldErrors)
	requireField(errs, "firstName", f.FirstName)
	requireField(errs, "lastName", f.LastName)
	requireField(errs, "dateOfBirth", f.DateOfBirth)
	requireField(errs, "gender", string(f.Gender))
	requireField(errs, "contactNumber", f.ContactNumber)
	requireField(errs, "email", f.Email)

	if f.Email != "" && !users.IsValidEmail(f.Email) {
		errs["email"] = "invalid email address"
	}
	if f.ContactNumber != "" && !users.IsValidPhone(f.ContactNumber) {
		errs["contactNumber"] = "invalid phone number"
	}
	if f.DateOfBirth != "" && !isValidDate(f.DateOfBirth) {
		errs["dateOfBirth"] = "invalid date"
	}
	switch f.Gender {
	case "", GenderMale, GenderFemale, GenderOther:
	default:
		errs["gender"] = "invalid gender"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateData is a partial client update; nil fields are left unchanged
type UpdateData struct {
	FirstName        *string `json:"firstName,omitempty"`
	LastName         *string `json:"lastName,omitempty"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty"`
	Gender           *Gender `json:"gender,omitempty"`
	ContactNumber    *string `json:"contactNumber,omitempty"`
	Email            *string `json:"email,omitempty"`
	Address          *string `json:"address,omitempty"`
	EmergencyContact *string `json:"emergencyContact,omitempty"`
}

func requireField(errs users.FieldErrors, field, value string) {
	if value == "" {
		errs[field] = "this field is required"
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func isValidDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// Cache tag kind for client records
const tagKind = "Clients"

// ListTag labels the full client list
func ListTag() cache.Tag {
	return cache.NewTag(tagKind, "LIST")
}

// SearchTag labels search results
func SearchTag() cache.Tag {
	return cache.NewTag(tagKind, "SEARCH")
}

// IDTag labels a single client record
func IDTag(id string) cache.Tag {
	return cache.NewTag(tagKind, id)
}
