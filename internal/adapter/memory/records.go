package memory

import (
	"github.com/Strob0t/PropertyHub/internal/domain/announcement"
	"github.com/Strob0t/PropertyHub/internal/domain/booking"
)

// NewBookingBackend returns an in-memory booking backend.
func NewBookingBackend() *Backend[*booking.Booking] {
	return NewBackend(func(b *booking.Booking) *booking.Booking {
		c := *b
		return &c
	})
}

// NewAnnouncementBackend returns an in-memory announcement backend.
func NewAnnouncementBackend() *Backend[*announcement.Announcement] {
	return NewBackend(func(a *announcement.Announcement) *announcement.Announcement {
		c := *a
		return &c
	})
}
