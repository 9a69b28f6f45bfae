package service

import (
	"context"
	"fmt"

	"controlling_pump/internal/logger"
	"controlling_pump/internal/models"
	"controlling_pump/internal/repository"
)

// SettingsEngine is the part of the control engine that owns thresholds.
type SettingsEngine interface {
	ApplySettings(s models.Settings) models.SettingsResult
	ApplyPatch(p models.SettingsPatch) models.SettingsResult
	Settings() models.Settings
}

type SettingsService struct {
	engine SettingsEngine
	repo   repository.SettingsRepo
	events EventLog
	log    *logger.Logger
}

func NewSettingsService(engine SettingsEngine, repo repository.SettingsRepo, events EventLog, log *logger.Logger) *SettingsService {
	return &SettingsService{engine: engine, repo: repo, events: events, log: log}
}

func (s *SettingsService) Current() models.Settings {
	return s.engine.Settings()
}

// Restore applies persisted settings, if any, over the configured defaults.
func (s *SettingsService) Restore(ctx context.Context) error {
	stored, found, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !found {
		s.log.Infow("settings_defaults_in_use", "settings", s.engine.Settings())
		return nil
	}
	res := s.engine.ApplySettings(stored)
	if !res.All() {
		s.log.Warnw("settings_restore_partial", "stored", stored, "accepted", res)
	}
	s.log.Infow("settings_restored", "settings", s.engine.Settings())
	return nil
}

// ApplySettings runs every setter independently, persists the settings now in
// force and records an event. Rejected fields keep their previous value.
func (s *SettingsService) ApplySettings(ctx context.Context, in models.Settings) (models.SettingsResult, error) {
	return s.apply(ctx, in.Patch(), in)
}

// ApplyPatch is ApplySettings for the provided fields only, so a concurrent
// change to an omitted field is never overwritten.
func (s *SettingsService) ApplyPatch(ctx context.Context, p models.SettingsPatch) (models.SettingsResult, error) {
	return s.apply(ctx, p, p)
}

func (s *SettingsService) apply(ctx context.Context, p models.SettingsPatch, requested any) (models.SettingsResult, error) {
	res := s.engine.ApplyPatch(p)
	applied := s.engine.Settings()

	evType := models.EventSettings
	desc := "settings updated"
	if !res.All() {
		evType = models.EventSettingsRejected
		desc = "settings update partially rejected"
	}
	s.events.Record(ctx, models.PumpEvent{
		Type:        evType,
		Description: desc,
		Metadata: map[string]any{
			"requested": requested,
			"applied":   applied,
			"accepted":  res,
		},
	})

	if !anyAccepted(p, res) {
		return res, nil
	}
	if err := s.repo.Save(ctx, applied); err != nil {
		s.log.Errorw("settings_persist_failed", "err", err)
		return res, fmt.Errorf("persist settings: %w", err)
	}
	return res, nil
}

// anyAccepted reports whether a provided field was accepted.
func anyAccepted(p models.SettingsPatch, r models.SettingsResult) bool {
	return (p.MinAmbient != nil && r.MinAmbient) ||
		(p.AmbientHysteresis != nil && r.AmbientHysteresis) ||
		(p.MinWater != nil && r.MinWater) ||
		(p.WaterHysteresis != nil && r.WaterHysteresis)
}
