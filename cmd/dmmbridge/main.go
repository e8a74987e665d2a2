// cmd/dmmbridge/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/bridge"
	"github.com/tamzrod/dmm-bridge/internal/config"
	"github.com/tamzrod/dmm-bridge/internal/link"
	"github.com/tamzrod/dmm-bridge/internal/logging"
	"github.com/tamzrod/dmm-bridge/internal/monitor"
	"github.com/tamzrod/dmm-bridge/internal/mqtt"
	"github.com/tamzrod/dmm-bridge/internal/scpi"
	"github.com/tamzrod/dmm-bridge/internal/writer"
	"github.com/tamzrod/dmm-bridge/internal/ws"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("usage: dmmbridge <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + normalize + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("config load failed: %v", err)
	}

	config.Normalize(cfg)

	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("config validation failed: %v", err)
	}

	logger := logging.New(cfg.Log)
	log := logging.Component(logger, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *monitor.Metrics
	if cfg.HTTP.Metrics {
		metrics = monitor.New()
	}

	// --------------------
	// Instrument link + bridge
	// --------------------

	l, err := link.Open(cfg.Link)
	if err != nil {
		log.Fatalf("link open failed: %v", err)
	}
	defer l.Close()
	log.Infof("instrument link %s open", l)

	fan := &bridge.Fanout{}
	b, err := bridge.New(
		bridge.FromConfig(cfg),
		l,
		scpi.NewTable(),
		fan,
		logging.Component(logger, "bridge"),
		metrics,
	)
	if err != nil {
		log.Fatalf("bridge build failed: %v", err)
	}

	// --------------------
	// Transports
	// --------------------

	if cfg.MQTT.Enabled {
		mc := mqtt.New(mqtt.FromConfig(cfg.MQTT), b, logging.Component(logger, "mqtt"))
		if err := mc.Start(); err != nil {
			log.Fatalf("mqtt start failed: %v", err)
		}
		defer mc.Stop()
		fan.Attach(mc)
	}

	if cfg.Modbus.Enabled {
		plan, err := writer.BuildPlan(cfg.Modbus)
		if err != nil {
			log.Fatalf("modbus plan failed: %v", err)
		}
		cli, err := writer.BuildClient(plan, cfg.Modbus)
		if err != nil {
			log.Fatalf("modbus client failed: %v", err)
		}
		defer cli.Close()

		mirror := writer.NewMirror(plan, cli, logging.Component(logger, "modbus"))
		mirror.Start()
		defer mirror.Stop()
		fan.Attach(mirror)
	}

	if cfg.HTTP.Listen != "" {
		srv := monitor.NewServer(cfg.HTTP.Listen, metrics, logging.Component(logger, "monitor"))

		if cfg.HTTP.Websocket {
			hub := ws.NewHub(b, logging.Component(logger, "ws"))
			srv.Handle("/ws", hub)
			defer hub.Stop()
			fan.Attach(hub)
		}

		srv.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(sctx); err != nil {
				log.Warnf("http shutdown: %v", err)
			}
		}()
	}

	// --------------------
	// Run until signalled
	// --------------------

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithFields(logrus.Fields{
			"code": errorCode(err),
		}).Errorf("bridge not polling: %v", err)

		// Transports stay up so the failure stays visible.
		<-ctx.Done()
	}

	log.Info("shutting down")
}

// errorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
