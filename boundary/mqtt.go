package boundary

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spirilis/pima-adapter"
)

// MQTTConfig holds the broker connection details and topic layout for the
// MQTT bridge.
type MQTTConfig struct {
	Host               string
	Port               int
	ClientID           string
	User               string // "user:password", empty for anonymous
	Topic              string
	DiscoveryPrefix    string
	DiscoveryMaxZone   int
}

// MQTTBridge publishes Supervisor status changes to <topic>/status,
// accepts arm commands on <topic>/command, and maintains an
// online/offline LWT, mirroring a Home Assistant MQTT integration.
type MQTTBridge struct {
	cfg        MQTTConfig
	supervisor Supervisor
	client     mqtt.Client
	logger     *log.Logger
}

// NewMQTTBridge constructs a bridge bound to sup. Call Connect to start it.
func NewMQTTBridge(cfg MQTTConfig, sup Supervisor, logger *log.Logger) *MQTTBridge {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Topic == "" {
		cfg.Topic = "pima_alarm"
	}
	if cfg.DiscoveryPrefix == "" {
		cfg.DiscoveryPrefix = "homeassistant"
	}
	if cfg.DiscoveryMaxZone == 0 {
		cfg.DiscoveryMaxZone = 8
	}
	return &MQTTBridge{cfg: cfg, supervisor: sup, logger: logger}
}

func (b *MQTTBridge) lwtTopic() string    { return b.cfg.Topic + "/LWT" }
func (b *MQTTBridge) statusTopic() string { return b.cfg.Topic + "/status" }
func (b *MQTTBridge) commandTopic() string { return b.cfg.Topic + "/command" }

// Connect dials the broker, publishes the discovery config, and subscribes
// to the command topic. A failed initial connection is retried every 5
// seconds; a lost connection is re-established by the client library's
// automatic reconnect.
func (b *MQTTBridge) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Host, b.cfg.Port))
	opts.SetClientID(b.cfg.ClientID)
	if b.cfg.User != "" {
		user, pass := splitUserPass(b.cfg.User)
		opts.SetUsername(user)
		opts.SetPassword(pass)
	}
	opts.SetWill(b.lwtTopic(), "offline", 0, true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		b.logger.Printf("pima: mqtt connected to %s:%d", b.cfg.Host, b.cfg.Port)
		c.Publish(b.lwtTopic(), 0, true, "online")
		b.publishDiscovery()
		c.Subscribe(b.commandTopic(), 0, b.onCommand)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		b.logger.Printf("pima: mqtt disconnected: %v", err)
	}

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	token.Wait()
	return token.Error()
}

func splitUserPass(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

func (b *MQTTBridge) onCommand(c mqtt.Client, msg mqtt.Message) {
	var req armRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		b.logger.Printf("pima: mqtt command decode error: %v", err)
		return
	}
	if len(req.Partitions) == 0 {
		req.Partitions = []int{1}
	}
	mode, err := pima.ParseArmMode(req.Mode)
	if err != nil {
		b.logger.Printf("pima: mqtt command invalid mode %q", req.Mode)
		return
	}
	if _, err := b.supervisor.Arm(mode, req.Partitions); err != nil {
		b.logger.Printf("pima: mqtt command arm failed: %v", err)
	}
}

// PublishStatus is registered as a Supervisor status-change sink.
func (b *MQTTBridge) PublishStatus(rec *pima.StatusRecord) {
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		b.logger.Printf("pima: mqtt status marshal error: %v", err)
		return
	}
	b.client.Publish(b.statusTopic(), 0, false, payload)
}

// publishDiscovery announces the alarm panel and up to DiscoveryMaxZone
// per-zone binary sensors to Home Assistant's MQTT discovery protocol.
func (b *MQTTBridge) publishDiscovery() {
	panel := map[string]interface{}{
		"name":           "PIMA Alarm",
		"unique_id":      "pima_alarm_panel",
		"state_topic":    b.statusTopic(),
		"command_topic":  b.commandTopic(),
		"payload_disarm": `{"mode":"disarm"}`,
		"payload_arm_away": `{"mode":"full_arm"}`,
		"payload_arm_home": `{"mode":"home1"}`,
		"availability_topic": b.lwtTopic(),
	}
	if data, err := json.Marshal(panel); err == nil {
		b.client.Publish(fmt.Sprintf("%s/alarm_control_panel/%s/config", b.cfg.DiscoveryPrefix, "pima_alarm"), 0, true, data)
	}

	for zone := 1; zone <= b.cfg.DiscoveryMaxZone; zone++ {
		sensor := map[string]interface{}{
			"name":                fmt.Sprintf("PIMA Zone %d", zone),
			"unique_id":           fmt.Sprintf("pima_zone_%d", zone),
			"state_topic":         b.statusTopic(),
			"value_template":      fmt.Sprintf("{{ '1' if %d in value_json.open_zones else '0' }}", zone),
			"payload_on":          "1",
			"payload_off":         "0",
			"device_class":        "motion",
			"availability_topic":  b.lwtTopic(),
		}
		if data, err := json.Marshal(sensor); err == nil {
			b.client.Publish(fmt.Sprintf("%s/binary_sensor/pima_zone_%d/config", b.cfg.DiscoveryPrefix, zone), 0, true, data)
		}
	}
}
