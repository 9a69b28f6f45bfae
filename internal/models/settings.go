package models

// ControlThresholds is the set point and dead band of one channel.
type ControlThresholds struct {
	MinTemperature float32 `json:"min_temperature"`
	Hysteresis     float32 `json:"hysteresis"`
}

// Settings is the full remotely configurable parameter set.
type Settings struct {
	MinAmbient        float32 `json:"min_ambient"`
	AmbientHysteresis float32 `json:"ambient_hysteresis"`
	MinWater          float32 `json:"min_water"`
	WaterHysteresis   float32 `json:"water_hysteresis"`
}

// SettingsResult reports which fields of an update were accepted.
type SettingsResult struct {
	MinAmbient        bool `json:"min_ambient"`
	AmbientHysteresis bool `json:"ambient_hysteresis"`
	MinWater          bool `json:"min_water"`
	WaterHysteresis   bool `json:"water_hysteresis"`
}

// All reports whether every field was accepted.
func (r SettingsResult) All() bool {
	return r.MinAmbient && r.AmbientHysteresis && r.MinWater && r.WaterHysteresis
}

// SettingsPatch is a partial update. Nil fields are left untouched.
type SettingsPatch struct {
	MinAmbient        *float32 `json:"min_ambient"`
	AmbientHysteresis *float32 `json:"ambient_hysteresis"`
	MinWater          *float32 `json:"min_water"`
	WaterHysteresis   *float32 `json:"water_hysteresis"`
}

// Empty reports whether the patch sets no field.
func (p SettingsPatch) Empty() bool {
	return p.MinAmbient == nil && p.AmbientHysteresis == nil && p.MinWater == nil && p.WaterHysteresis == nil
}

// Patch returns a patch that sets every field of s.
func (s Settings) Patch() SettingsPatch {
	return SettingsPatch{
		MinAmbient:        &s.MinAmbient,
		AmbientHysteresis: &s.AmbientHysteresis,
		MinWater:          &s.MinWater,
		WaterHysteresis:   &s.WaterHysteresis,
	}
}
