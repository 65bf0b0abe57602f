// Package announcement defines tenant-wide notices published by management.
package announcement

import (
	"time"

	"github.com/Strob0t/PropertyHub/internal/domain"
)

// Announcement is a notice visible to every principal of one tenant.
type Announcement struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedBy string    `json:"published_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Announcement) RecordID() int64       { return a.ID }
func (a *Announcement) SetRecordID(id int64)  { a.ID = id }
func (a *Announcement) OwnerTenant() int64    { return a.TenantID }
func (a *Announcement) AssignTenant(id int64) { a.TenantID = id }

// CreateRequest is the input for publishing an announcement.
type CreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Validate checks that the announcement has content.
func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return domain.Validationf("title is required")
	}
	if len(r.Title) > 200 {
		return domain.Validationf("title too long (max 200 chars)")
	}
	if r.Body == "" {
		return domain.Validationf("body is required")
	}
	return nil
}
