// Package config parses the adapter's CLI flags, each of which falls back
// to an environment variable of the same name, following the flag library the
// adapter's command-line tools are built on.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/spirilis/pima-adapter"
)

// Config is the fully parsed startup configuration for the pima-server
// binary.
type Config struct {
	SSLCert string
	SSLKey  string
	Port    int
	APIKey  string
	Login   string
	Zones   pima.ZoneCapacity

	SerialPort string
	PimaHost   string
	PimaPort   int

	MQTTHost             string
	MQTTPort             int
	MQTTClientID         string
	MQTTUser             string
	MQTTTopic            string
	MQTTDiscoveryPrefix  string
	MQTTDiscoveryMaxZone int

	LogLevel string
}

// serialByPathDir is where udev enumerates stable serial device symlinks;
// used to auto-discover a panel device when none is configured explicitly.
const serialByPathDir = "/dev/serial/by-path"

// Parse parses args (typically os.Args[1:]) into a Config, falling back
// to environment variables per flag and to serial-port auto-discovery
// when neither serialport nor pima_host/pima_port are set.
func Parse(args []string) (*Config, error) {
	app := kingpin.New("pima-server", "PIMA Hunter Pro protocol adapter")

	sslCert := app.Flag("ssl_cert", "TLS certificate path").Envar("SSL_CERT").String()
	sslKey := app.Flag("ssl_key", "TLS key path").Envar("SSL_KEY").String()
	port := app.Flag("port", "HTTP listen port").Envar("PORT").Default("8080").Int()
	key := app.Flag("key", "HTTP/MQTT api_key secret").Envar("KEY").Required().String()
	login := app.Flag("login", "Panel login code, 4-6 digits").Envar("LOGIN").Required().String()
	zones := app.Flag("zones", "Panel zone capacity: 32, 96 or 144").Envar("ZONES").Default("32").Int()

	serialPort := app.Flag("serialport", "Serial device path").Envar("SERIALPORT").String()
	pimaHost := app.Flag("pima_host", "Panel TCP host").Envar("PIMA_HOST").String()
	pimaPort := app.Flag("pima_port", "Panel TCP port").Envar("PIMA_PORT").Int()

	mqttHost := app.Flag("mqtt_host", "MQTT broker host").Envar("MQTT_HOST").String()
	mqttPort := app.Flag("mqtt_port", "MQTT broker port").Envar("MQTT_PORT").Default("1883").Int()
	mqttClientID := app.Flag("mqtt_client_id", "MQTT client id").Envar("MQTT_CLIENT_ID").Default("pima-adapter").String()
	mqttUser := app.Flag("mqtt_user", "MQTT user:password").Envar("MQTT_USER").String()
	mqttTopic := app.Flag("mqtt_topic", "MQTT base topic").Envar("MQTT_TOPIC").Default("pima_alarm").String()
	mqttDiscoveryPrefix := app.Flag("mqtt_discovery_prefix", "Home Assistant discovery prefix").Envar("MQTT_DISCOVERY_PREFIX").Default("homeassistant").String()
	mqttDiscoveryMaxZone := app.Flag("mqtt_discovery_max_zone", "Highest zone number to announce via discovery").Envar("MQTT_DISCOVERY_MAX_ZONE").Default("8").Int()

	logLevel := app.Flag("log_level", "Log verbosity").Envar("LOG_LEVEL").Default("info").String()

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}

	capacity := pima.ZoneCapacity(*zones)
	if !capacity.Valid() {
		return nil, fmt.Errorf("config: zones must be 32, 96 or 144, got %d", *zones)
	}
	if !pima.IsValidLoginCode(*login) {
		return nil, fmt.Errorf("config: login must be 4-6 decimal digits")
	}

	cfg := &Config{
		SSLCert: *sslCert,
		SSLKey:  *sslKey,
		Port:    *port,
		APIKey:  *key,
		Login:   *login,
		Zones:   capacity,

		SerialPort: *serialPort,
		PimaHost:   *pimaHost,
		PimaPort:   *pimaPort,

		MQTTHost:             *mqttHost,
		MQTTPort:             *mqttPort,
		MQTTClientID:         *mqttClientID,
		MQTTUser:             *mqttUser,
		MQTTTopic:            *mqttTopic,
		MQTTDiscoveryPrefix:  *mqttDiscoveryPrefix,
		MQTTDiscoveryMaxZone: *mqttDiscoveryMaxZone,

		LogLevel: *logLevel,
	}

	if cfg.SerialPort == "" && (cfg.PimaHost == "" || cfg.PimaPort == 0) {
		discovered, err := discoverSerialPort()
		if err != nil {
			return nil, err
		}
		cfg.SerialPort = discovered
	}

	return cfg, nil
}

// UseTCP reports whether the panel should be reached over TCP rather than
// serial, per the adapter's transport selection rule.
func (c *Config) UseTCP() bool {
	return c.PimaHost != "" && c.PimaPort != 0
}

// discoverSerialPort returns the first entry under /dev/serial/by-path,
// the fallback when neither serialport nor pima_host/pima_port are set.
func discoverSerialPort() (string, error) {
	entries, err := os.ReadDir(serialByPathDir)
	if err != nil || len(entries) == 0 {
		return "", fmt.Errorf("config: no serialport configured and no device found under %s", serialByPathDir)
	}
	return filepath.Join(serialByPathDir, entries[0].Name()), nil
}
