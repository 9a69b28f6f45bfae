package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "controlling_pump/docs"
	"controlling_pump/internal/config"
	"controlling_pump/internal/control"
	"controlling_pump/internal/gpio"
	"controlling_pump/internal/handlers"
	"controlling_pump/internal/logger"
	"controlling_pump/internal/metrics"
	"controlling_pump/internal/models"
	"controlling_pump/internal/mqtt"
	"controlling_pump/internal/repository"
	"controlling_pump/internal/repository/db"
	"controlling_pump/internal/sensor"
	"controlling_pump/internal/server"
	"controlling_pump/internal/service"
	"controlling_pump/internal/telemetry"

	"github.com/spf13/afero"
)

const shutdownTimeout = 10 * time.Second

// Readings served by the fake sensor driver.
const (
	fakeAmbientAddr = "fake-ambient"
	fakeWaterAddr   = "fake-water"
	fakeAmbientC    = 30.0
	fakeWaterC      = 28.0
)

func main() {
	// load configs/config.yml before the logger so its options apply
	cfg, cfgErr := config.Load("config", "configs", ".")
	if cfgErr != nil {
		logger.Get(logger.Options{Level: logger.InfoLevel}).Fatalw("error reading config", "err", cfgErr)
	}

	// init logger
	log := logger.Get(logger.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		RemoteDebug: cfg.Debug.RemoteEnabled,
	})
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer closeDB(conn, log)

	// hardware
	reader, err := openSensors(cfg.Sensors, log)
	if err != nil {
		log.Fatalw("failed to init temperature sensors", "err", err)
	}
	pump, err := openOutput(cfg.Pump.Driver, cfg.Pump.Chip, cfg.Pump.Pin)
	if err != nil {
		log.Fatalw("failed to init pump output", "err", err, "pin", cfg.Pump.Pin)
	}
	defer func() { _ = pump.Close() }()

	var led gpio.Output
	if cfg.Heartbeat.LEDPin >= 0 {
		led, err = openOutput(cfg.Pump.Driver, cfg.Pump.Chip, cfg.Heartbeat.LEDPin)
		if err != nil {
			log.Warnw("heartbeat_led_unavailable", "err", err, "pin", cfg.Heartbeat.LEDPin)
		} else {
			defer func() { _ = led.Close() }()
		}
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := openPublisher(ctx, cfg.MQTT, log)
	defer func() { _ = publisher.Close() }()

	// wire dependencies
	engine := control.NewEngine(control.Config{
		MinRunTime: cfg.Control.MinRunTime,
		MinOffTime: cfg.Control.MinOffTime,
		Settings: models.Settings{
			MinAmbient:        cfg.Control.MinAmbient,
			AmbientHysteresis: cfg.Control.AmbientHysteresis,
			MinWater:          cfg.Control.MinWater,
			WaterHysteresis:   cfg.Control.WaterHysteresis,
		},
	}, pump, log)

	hub := telemetry.NewHub(telemetry.Options{
		MaxSessions: cfg.WS.MaxSessions,
		Settings:    engine,
	}, log)

	repos := repository.NewRepository(conn)
	services := service.NewService(service.Deps{
		Repos:          repos,
		Engine:         engine,
		Sampler:        reader,
		Hub:            hub,
		Publisher:      publisher,
		LED:            led,
		WatchdogPeriod: cfg.Control.WatchdogPeriod,
		Log:            log,
	})
	// settings frames from clients go through the service so they are persisted
	hub.SetApplier(services.Settings)

	if fo := log.FanOut(); fo != nil {
		fo.SetSink(hub)
		fo.OnDrop(metrics.RecordDebugDrop)
		go fo.Run(ctx)
	}

	if err := services.Settings.Restore(ctx); err != nil {
		log.Warnw("settings_restore_failed", "err", err)
	}
	services.EventLog.Record(ctx, models.PumpEvent{
		Type:        models.EventStartup,
		Description: "controller started",
		Metadata:    services.Settings.Current(),
	})

	go services.Control.Run(ctx, cfg.Control.Period)
	go services.Heartbeat.Run(ctx, cfg.Heartbeat.Period)

	// start HTTP server
	apiHandler := handlers.NewHandler(services, hub, log)
	srv := server.New(cfg.HTTP.Port, apiHandler.InitRoutes())
	runHTTPServer(srv, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func openSensors(cfg config.SensorsConfig, log *logger.Logger) (*sensor.Reader, error) {
	pinned := sensor.Addresses{Ambient: cfg.AmbientAddress, Water: cfg.WaterAddress}
	if cfg.Driver == config.DriverFake {
		bus := sensor.NewFakeBus(fakeAmbientAddr, fakeWaterAddr)
		bus.Script(fakeAmbientAddr, fakeAmbientC)
		bus.Script(fakeWaterAddr, fakeWaterC)
		return sensor.NewReader(bus, pinned, log)
	}
	return sensor.NewReader(sensor.NewW1Bus(afero.NewOsFs(), cfg.W1Root), pinned, log)
}

func openOutput(driver, chip string, pin int) (gpio.Output, error) {
	if driver == config.DriverFake {
		return gpio.NewFakeOutput(), nil
	}
	out, err := gpio.NewLineOutput(chip, pin)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// openPublisher connects the MQTT mirror. Messages are queued and sent from
// their own goroutine so a slow broker never stalls the control loop.
func openPublisher(ctx context.Context, cfg config.MQTTConfig, log *logger.Logger) mqtt.Publisher {
	if cfg.Broker == "" {
		return mqtt.NopPublisher{}
	}
	p, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, cfg.Topic)
	if err != nil {
		log.Warnw("mqtt_unavailable", "err", err, "broker", cfg.Broker)
		return mqtt.NopPublisher{}
	}
	if p.IsConnected() {
		log.Infow("mqtt_connected", "broker", cfg.Broker, "topic", cfg.Topic)
	} else {
		log.Warnw("mqtt_connect_pending", "broker", cfg.Broker, "topic", cfg.Topic)
	}
	async := mqtt.NewAsyncPublisher(p, mqtt.DefaultQueueDepth, log)
	go async.Run(ctx)
	return async
}

func closeDB(conn *sql.DB, log *logger.Logger) {
	if err := conn.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop control loop, heartbeat and debug fan-out
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
