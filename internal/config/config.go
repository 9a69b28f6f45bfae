package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration, read from configs/config.yml
// and overridable through POOLPUMP_* environment variables.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Control   ControlConfig   `mapstructure:"control"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Sensors   SensorsConfig   `mapstructure:"sensors"`
	Pump      PumpConfig      `mapstructure:"pump"`
	WS        WSConfig        `mapstructure:"ws"`
	Debug     DebugConfig     `mapstructure:"debug"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type ControlConfig struct {
	Period            time.Duration `mapstructure:"period"`
	MinRunTime        time.Duration `mapstructure:"min_run_time"`
	MinOffTime        time.Duration `mapstructure:"min_off_time"`
	WatchdogPeriod    time.Duration `mapstructure:"watchdog_period"`
	MinAmbient        float32       `mapstructure:"min_ambient"`
	AmbientHysteresis float32       `mapstructure:"ambient_hysteresis"`
	MinWater          float32       `mapstructure:"min_water"`
	WaterHysteresis   float32       `mapstructure:"water_hysteresis"`
}

type HeartbeatConfig struct {
	Period time.Duration `mapstructure:"period"`
	LEDPin int           `mapstructure:"led_pin"` // negative disables the LED
}

type SensorsConfig struct {
	Driver         string `mapstructure:"driver"` // w1 | fake
	W1Root         string `mapstructure:"w1_root"`
	AmbientAddress string `mapstructure:"ambient_address"`
	WaterAddress   string `mapstructure:"water_address"`
}

type PumpConfig struct {
	Driver string `mapstructure:"driver"` // gpio | fake
	Chip   string `mapstructure:"chip"`
	Pin    int    `mapstructure:"pin"`
}

type WSConfig struct {
	MaxSessions int `mapstructure:"max_sessions"`
}

type DebugConfig struct {
	RemoteEnabled bool `mapstructure:"remote_enabled"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"` // empty disables the mirror
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

const envPrefix = "POOLPUMP"

// Driver names.
const (
	DriverW1   = "w1"
	DriverGPIO = "gpio"
	DriverFake = "fake"
)

var (
	errNonPositivePeriod = errors.New("period must be > 0")
	errNegativeDwell     = errors.New("dwell time must be >= 0")
	errThreshold         = errors.New("threshold must be > 1.0")
	errUnknownDriver     = errors.New("unknown driver")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("db.path", "pump.db")

	v.SetDefault("control.period", 10*time.Second)
	v.SetDefault("control.min_run_time", 600*time.Second)
	v.SetDefault("control.min_off_time", 300*time.Second)
	v.SetDefault("control.watchdog_period", 2*time.Second)
	v.SetDefault("control.min_ambient", 38.0)
	v.SetDefault("control.ambient_hysteresis", 2.0)
	v.SetDefault("control.min_water", 35.0)
	v.SetDefault("control.water_hysteresis", 4.0)

	v.SetDefault("heartbeat.period", time.Second)
	v.SetDefault("heartbeat.led_pin", 2)

	v.SetDefault("sensors.driver", DriverW1)
	v.SetDefault("sensors.w1_root", "/sys/bus/w1/devices")

	v.SetDefault("pump.driver", DriverGPIO)
	v.SetDefault("pump.chip", "gpiochip0")
	v.SetDefault("pump.pin", 4)

	v.SetDefault("ws.max_sessions", 7)
	v.SetDefault("debug.remote_enabled", false)

	v.SetDefault("mqtt.topic", "poolpump")
	v.SetDefault("mqtt.client_id", "pool-pump-controller")
}

// Load reads configs/<name>.yml from the given search paths. A missing file is
// not an error: defaults and environment variables still apply.
func Load(name string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(name)
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the controller cannot run with.
func (c *Config) Validate() error {
	if c.Control.Period <= 0 {
		return fmt.Errorf("control.period: %w", errNonPositivePeriod)
	}
	if c.Control.WatchdogPeriod <= 0 {
		return fmt.Errorf("control.watchdog_period: %w", errNonPositivePeriod)
	}
	if c.Heartbeat.Period <= 0 {
		return fmt.Errorf("heartbeat.period: %w", errNonPositivePeriod)
	}
	if c.Control.MinRunTime < 0 {
		return fmt.Errorf("control.min_run_time: %w", errNegativeDwell)
	}
	if c.Control.MinOffTime < 0 {
		return fmt.Errorf("control.min_off_time: %w", errNegativeDwell)
	}
	for key, val := range map[string]float32{
		"control.min_ambient":        c.Control.MinAmbient,
		"control.ambient_hysteresis": c.Control.AmbientHysteresis,
		"control.min_water":          c.Control.MinWater,
		"control.water_hysteresis":   c.Control.WaterHysteresis,
	} {
		if val <= 1.0 {
			return fmt.Errorf("%s=%.2f: %w", key, val, errThreshold)
		}
	}
	switch c.Sensors.Driver {
	case DriverW1, DriverFake:
	default:
		return fmt.Errorf("sensors.driver %q: %w", c.Sensors.Driver, errUnknownDriver)
	}
	switch c.Pump.Driver {
	case DriverGPIO, DriverFake:
	default:
		return fmt.Errorf("pump.driver %q: %w", c.Pump.Driver, errUnknownDriver)
	}
	return nil
}
