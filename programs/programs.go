package programs

import (
	"time"

	"github.com/healthsys/go-health-admin/cache"
	"github.com/healthsys/go-health-admin/users"
)

// Status of a health program
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusPlanned   Status = "planned"
)

// Program is a health program clients can be enrolled into
type Program struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	StartDate       string  `json:"startDate"`
	EndDate         *string `json:"endDate,omitempty"`
	Status          Status  `json:"status"`
	Capacity        *int    `json:"capacity,omitempty"`
	EnrolledClients int     `json:"enrolledClients"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// FormData is the payload for creating or replacing a program
type FormData struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	Status      Status  `json:"status"`
	Capacity    *int    `json:"capacity,omitempty"`
}

// Validate checks the form before any network call
func (f *FormData) Validate() error {
	errs := make(users.FieldErrors)
	if f.Name == "" {
		errs["name"] = "this field is required"
	}
	if f.Description == "" {
		errs["description"] = "this field is required"
	}
	if f.StartDate == "" {
		errs["startDate"] = "this field is required"
	} else if !isValidDate(f.StartDate) {
		errs["startDate"] = "invalid date"
	}
	if f.EndDate != nil && !isValidDate(*f.EndDate) {
		errs["endDate"] = "invalid date"
	}
	switch f.Status {
	case StatusActive, StatusCompleted, StatusPlanned:
	default:
		errs["status"] = "invalid status"
	}
	if f.Capacity != nil && *f.Capacity <= 0 {
		errs["capacity"] = "capacity must be positive"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateData is a partial program update; nil fields are left unchanged
type UpdateData struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Status      *Status `json:"status,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
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

// Cache tag kind for programs
const tagKind = "Programs"

// ListTag labels the full program list
func ListTag() cache.Tag {
	return cache.NewTag(tagKind, "LIST")
}

// IDTag labels a single program record
func IDTag(id string) cache.Tag {
	return cache.NewTag(tagKind, id)
}
