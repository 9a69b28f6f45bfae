package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"controlling_pump/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	pumpSettingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO pump_settings (id, min_ambient, ambient_hysteresis, min_water, water_hysteresis, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			min_ambient=excluded.min_ambient,
			ambient_hysteresis=excluded.ambient_hysteresis,
			min_water=excluded.min_water,
			water_hysteresis=excluded.water_hysteresis,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT min_ambient, ambient_hysteresis, min_water, water_hysteresis
		FROM pump_settings WHERE id=?
	`
)

// Save upserts the pump_settings row (id always 1).
func (r *SettingsSQLite) Save(ctx context.Context, s models.Settings) error {
	_, err := r.db.ExecContext(ctx, upsertSettingsSQL,
		pumpSettingsRowID,
		float64(s.MinAmbient),
		float64(s.AmbientHysteresis),
		float64(s.MinWater),
		float64(s.WaterHysteresis),
		time.Now().UTC(),
	)
	return err
}

// Load fetches the persisted settings.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, bool, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, pumpSettingsRowID)

	var minAmbient, ambHyst, minWater, waterHyst float64
	if err := row.Scan(&minAmbient, &ambHyst, &minWater, &waterHyst); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, false, nil
		}
		return models.Settings{}, false, err
	}
	return models.Settings{
		MinAmbient:        float32(minAmbient),
		AmbientHysteresis: float32(ambHyst),
		MinWater:          float32(minWater),
		WaterHysteresis:   float32(waterHyst),
	}, true, nil
}
