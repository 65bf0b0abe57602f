package service

import (
	"context"
	"log/slog"
	"time"

	photel "github.com/Strob0t/PropertyHub/internal/adapter/otel"
	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain/announcement"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

var announcementPublishers = authz.Require("only managers can publish announcements", user.RoleManager, user.RoleTenantAdmin)

// AnnouncementService publishes notices to a tenant's residents. Publishing
// and deleting are gated when the service is built.
type AnnouncementService struct {
	store   *tenancy.Store[*announcement.Announcement]
	publish authz.Operation[announcement.CreateRequest, *announcement.Announcement]
	remove  authz.Operation[int64, struct{}]
}

// NewAnnouncementService creates an AnnouncementService on store.
func NewAnnouncementService(store *tenancy.Store[*announcement.Announcement], gate *authz.Gate) *AnnouncementService {
	s := &AnnouncementService{store: store}
	s.publish = authz.Guard[announcement.CreateRequest, *announcement.Announcement](gate, s.doPublish, announcementPublishers)
	s.remove = authz.Guard[int64, struct{}](gate, s.doDelete, announcementPublishers)
	return s
}

// Publish creates an announcement in the caller's tenant.
func (s *AnnouncementService) Publish(ctx context.Context, req announcement.CreateRequest) (*announcement.Announcement, error) {
	return s.publish(ctx, req)
}

// Delete removes an announcement of the caller's tenant.
func (s *AnnouncementService) Delete(ctx context.Context, id int64) error {
	_, err := s.remove(ctx, id)
	return err
}

// Get returns an announcement of the caller's tenant.
func (s *AnnouncementService) Get(ctx context.Context, id int64) (*announcement.Announcement, error) {
	return s.store.Get(ctx, id)
}

// List returns the announcements of the caller's tenant.
func (s *AnnouncementService) List(ctx context.Context) ([]*announcement.Announcement, error) {
	return s.store.List(ctx)
}

func (s *AnnouncementService) doPublish(ctx context.Context, req announcement.CreateRequest) (*announcement.Announcement, error) {
	ctx, span := photel.StartServiceSpan(ctx, "announcement.publish")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	a := &announcement.Announcement{
		Title:       req.Title,
		Body:        req.Body,
		PublishedBy: id.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "announcement published", "announcement_id", a.ID)
	return a, nil
}

func (s *AnnouncementService) doDelete(ctx context.Context, id int64) (struct{}, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return struct{}{}, err
	}
	slog.InfoContext(ctx, "announcement deleted", "announcement_id", id)
	return struct{}{}, nil
}
