package repository

import (
	"context"
	"database/sql"
	"time"

	"controlling_pump/internal/models"
)

type SettingsRepo interface {
	Save(ctx context.Context, s models.Settings) error
	// Load returns found=false when nothing has been persisted yet.
	Load(ctx context.Context) (s models.Settings, found bool, err error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.PumpEvent) error
	List(ctx context.Context, f EventFilter) ([]models.PumpEvent, error)
}

// EventFilter narrows List. Zero fields are ignored.
type EventFilter struct {
	From  time.Time
	To    time.Time
	Type  string
	Limit int
}

type Repository struct {
	SettingsRepo SettingsRepo
	EventRepo    EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		EventRepo:    NewEventSQLite(db),
	}
}
