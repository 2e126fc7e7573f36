package httptransport

import (
	"net/mail"
	"strings"
	"time"

	"sanitrack/internal/query"
	dErrors "sanitrack/pkg/domain-errors"
)

const (
	maxNameLength  = 200
	maxNotesLength = 2000
)

// CreateCustomerRequest is the body for POST /customers.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (r *CreateCustomerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return dErrors.New(dErrors.CodeValidation, "email is invalid")
		}
	}
	return nil
}

func (r *CreateCustomerRequest) Record() query.Record {
	rec := query.Record{"name": r.Name}
	setIfNotEmpty(rec, "email", r.Email)
	setIfNotEmpty(rec, "phone", strings.TrimSpace(r.Phone))
	setIfNotEmpty(rec, "address", strings.TrimSpace(r.Address))
	setIfNotEmpty(rec, "notes", r.Notes)
	return rec
}

// UpdateCustomerRequest is the body for PATCH /customers/{id}. Absent fields
// are left unchanged.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

func (r *UpdateCustomerRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be blank")
		}
		if len(trimmed) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name is too long")
		}
		r.Name = &trimmed
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			return dErrors.New(dErrors.CodeValidation, "email is invalid")
		}
	}
	if r.Notes != nil && len(*r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	if len(r.Record()) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field is required")
	}
	return nil
}

func (r *UpdateCustomerRequest) Record() query.Record {
	rec := query.Record{}
	setIfPresent(rec, "name", r.Name)
	setIfPresent(rec, "email", r.Email)
	setIfPresent(rec, "phone", r.Phone)
	setIfPresent(rec, "address", r.Address)
	setIfPresent(rec, "notes", r.Notes)
	return rec
}

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

func (s JobStatus) valid() bool {
	switch s {
	case JobStatusScheduled, JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// CreateJobRequest is the body for POST /jobs.
type CreateJobRequest struct {
	Title        string     `json:"title"`
	CustomerID   string     `json:"customer_id,omitempty"`
	Status       JobStatus  `json:"status,omitempty"`
	AssignedTo   string     `json:"assigned_to,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

func (r *CreateJobRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "title is too long")
	}
	if r.Status == "" {
		r.Status = JobStatusScheduled
	}
	if !r.Status.valid() {
		return dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	return nil
}

func (r *CreateJobRequest) Record() query.Record {
	rec := query.Record{"title": r.Title, "status": string(r.Status)}
	setIfNotEmpty(rec, "customer_id", strings.TrimSpace(r.CustomerID))
	setIfNotEmpty(rec, "assigned_to", strings.TrimSpace(r.AssignedTo))
	if r.ScheduledFor != nil {
		rec["scheduled_for"] = r.ScheduledFor.UTC()
	}
	return rec
}

// UpdateJobRequest is the body for PATCH /jobs/{id}.
type UpdateJobRequest struct {
	Title        *string    `json:"title,omitempty"`
	Status       *JobStatus `json:"status,omitempty"`
	AssignedTo   *string    `json:"assigned_to,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

func (r *UpdateJobRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return dErrors.New(dErrors.CodeValidation, "title cannot be blank")
		}
		if len(title) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "title is too long")
		}
	}
	if r.Status != nil && !r.Status.valid() {
		return dErrors.New(dErrors.CodeValidation, "status is invalid")
	}
	if len(r.Record()) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field is required")
	}
	return nil
}

func (r *UpdateJobRequest) Record() query.Record {
	rec := query.Record{}
	if r.Title != nil {
		rec["title"] = strings.TrimSpace(*r.Title)
	}
	if r.Status != nil {
		rec["status"] = string(*r.Status)
	}
	setIfPresent(rec, "assigned_to", r.AssignedTo)
	if r.ScheduledFor != nil {
		rec["scheduled_for"] = r.ScheduledFor.UTC()
	}
	return rec
}

// CreateInventoryItemRequest is the body for POST /inventory-items.
type CreateInventoryItemRequest struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (r *CreateInventoryItemRequest) Validate() error {
	r.SKU = strings.TrimSpace(r.SKU)
	r.Name = strings.TrimSpace(r.Name)
	if r.SKU == "" {
		return dErrors.New(dErrors.CodeValidation, "sku is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if r.Quantity < 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity cannot be negative")
	}
	return nil
}

func (r *CreateInventoryItemRequest) Record() query.Record {
	return query.Record{"sku": r.SKU, "name": r.Name, "quantity": r.Quantity}
}

// UpdateInventoryItemRequest is the body for PATCH /inventory-items/{id}.
type UpdateInventoryItemRequest struct {
	Name     *string `json:"name,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

func (r *UpdateInventoryItemRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be blank")
		}
		if len(name) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name is too long")
		}
	}
	if r.Quantity != nil && *r.Quantity < 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity cannot be negative")
	}
	if len(r.Record()) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field is required")
	}
	return nil
}

func (r *UpdateInventoryItemRequest) Record() query.Record {
	rec := query.Record{}
	if r.Name != nil {
		rec["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Quantity != nil {
		rec["quantity"] = *r.Quantity
	}
	return rec
}

func setIfNotEmpty(rec query.Record, key, value string) {
	if value != "" {
		rec[key] = value
	}
}

func setIfPresent(rec query.Record, key string, value *string) {
	if value != nil {
		rec[key] = *value
	}
}
