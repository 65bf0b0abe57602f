package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PropertyHub/internal/adapter/memory"
	"github.com/Strob0t/PropertyHub/internal/adapter/postgres"
	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/domain/announcement"
	"github.com/Strob0t/PropertyHub/internal/domain/booking"
	"github.com/Strob0t/PropertyHub/internal/port/database"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// stores bundles the persistence adapters selected by storage.driver.
type stores struct {
	tenants       database.TenantStore
	users         database.UserStore
	bookings      tenancy.Backend[*booking.Booking]
	announcements tenancy.Backend[*announcement.Announcement]
	ping          func(ctx context.Context) error
	close         func()
}

// openStores connects the configured driver. With migrate set, pending
// Postgres migrations are applied first.
func openStores(ctx context.Context, cfg *config.Config, migrate bool) (*stores, error) {
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("using in-memory storage: data is lost on exit")
		return &stores{
			tenants:       memory.NewTenantStore(),
			users:         memory.NewUserStore(),
			bookings:      memory.NewBookingBackend(),
			announcements: memory.NewAnnouncementBackend(),
			ping:          func(context.Context) error { return nil },
			close:         func() {},
		}, nil

	case "postgres":
		if migrate {
			if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
				return nil, fmt.Errorf("migrations: %w", err)
			}
			slog.Info("migrations applied")
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		slog.Info("postgres connected", "max_conns", cfg.Postgres.MaxConns)
		store := postgres.NewStore(pool)
		return &stores{
			tenants:       store,
			users:         store,
			bookings:      postgres.NewBookingBackend(pool),
			announcements: postgres.NewAnnouncementBackend(pool),
			ping:          store.Ping,
			close:         pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
