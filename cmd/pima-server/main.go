// Command pima-server runs the PIMA Hunter Pro protocol adapter: it
// maintains a logged-in session against the panel and exposes its state
// and arm command over HTTP and MQTT.
package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"github.com/spirilis/pima-adapter"
	"github.com/spirilis/pima-adapter/boundary"
	"github.com/spirilis/pima-adapter/config"
)

func main() {
	logger := log.New(os.Stderr, "pima-server: ", log.LstdFlags)

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dial := func() (pima.Transport, error) {
		if cfg.UseTCP() {
			return pima.OpenTCP(ctx, cfg.PimaHost, cfg.PimaPort)
		}
		return pima.OpenSerial(cfg.SerialPort)
	}

	sup := pima.NewSupervisor(dial, cfg.Zones, cfg.Login, logger)

	if cfg.MQTTHost != "" {
		bridge := boundary.NewMQTTBridge(boundary.MQTTConfig{
			Host:             cfg.MQTTHost,
			Port:             cfg.MQTTPort,
			ClientID:         cfg.MQTTClientID,
			User:             cfg.MQTTUser,
			Topic:            cfg.MQTTTopic,
			DiscoveryPrefix:  cfg.MQTTDiscoveryPrefix,
			DiscoveryMaxZone: cfg.MQTTDiscoveryMaxZone,
		}, sup, logger)
		if err := bridge.Connect(); err != nil {
			logger.Printf("mqtt: initial connect failed, will keep retrying: %v", err)
		}
		sup.OnStatusChange(bridge.PublishStatus)
	}

	httpServer := boundary.NewHTTPServer(sup, cfg.APIKey, logger)
	addr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{Addr: addr, Handler: httpServer.Handler()}

	go func() {
		var err error
		if cfg.SSLCert != "" && cfg.SSLKey != "" {
			srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			err = srv.ListenAndServeTLS(cfg.SSLCert, cfg.SSLKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	logger.Printf("pima-server listening on %s", addr)

	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("supervisor: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
