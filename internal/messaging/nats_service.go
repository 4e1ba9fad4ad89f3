package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
)

// NATSService handles NATS messaging for the FieldVoice system
type NATSService struct {
	conn *nats.Conn
	cfg  config.NATSConfig
}

// CommandMessage represents a processed voice command published to the bus
type CommandMessage struct {
	RequestID     string  `json:"request_id"`
	ScreenName    string  `json:"screen_name"`
	Transcription string  `json:"transcription"`
	Action        string  `json:"action"`
	Target        string  `json:"target,omitempty"`
	Value         string  `json:"value,omitempty"`
	Confidence    float64 `json:"confidence"`
	Success       bool    `json:"success"`
	Timestamp     int64   `json:"timestamp"`
}

// ReportMessage represents a generated closeout report published to the bus
type ReportMessage struct {
	UUID           string `json:"uuid"`
	TechnicianName string `json:"technician_name"`
	Location       string `json:"location"`
	Source         string `json:"source"`
	Timestamp      int64  `json:"timestamp"`
}

// SystemMessage represents a hub lifecycle event
type SystemMessage struct {
	Event     string `json:"event"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NATS subjects for different event types
const (
	SubjectVoiceCommands = "fieldvoice.commands"
	SubjectReports       = "fieldvoice.reports"
	SubjectSystemEvents  = "fieldvoice.system.events"
)

// NewNATSService creates a new NATS service instance
func NewNATSService(cfg config.NATSConfig) *NATSService {
	if cfg.URL == "" {
		cfg.URL = "nats://localhost:4222"
	}
	return &NATSService{cfg: cfg}
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	logging.Sugar.Infow("🔌 Connecting to NATS", "url", ns.cfg.URL)

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("fieldvoice-hub"),
		nats.ReconnectWait(ns.cfg.ReconnectWait),
		nats.MaxReconnects(ns.cfg.MaxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Sugar.Warnw("⚠️  NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Sugar.Infow("🔄 NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Sugar.Info("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	logging.Sugar.Infow("✅ Connected to NATS server", "url", conn.ConnectedUrl())
	return nil
}

// PublishCommand publishes a processed voice command event
func (ns *NATSService) PublishCommand(msg *CommandMessage) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal command message: %w", err)
	}

	if err := ns.conn.Publish(SubjectVoiceCommands, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectVoiceCommands, err)
	}

	logging.Sugar.Debugw("📤 Published voice command to NATS",
		"action", msg.Action,
		"screen", msg.ScreenName,
	)
	return nil
}

// PublishReport publishes a generated report event
func (ns *NATSService) PublishReport(msg *ReportMessage) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal report message: %w", err)
	}

	if err := ns.conn.Publish(SubjectReports, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectReports, err)
	}

	logging.Sugar.Debugw("📤 Published report to NATS",
		"uuid", msg.UUID,
		"source", msg.Source,
	)
	return nil
}

// PublishSystemEvent publishes a hub lifecycle event
func (ns *NATSService) PublishSystemEvent(event, detail string) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(&SystemMessage{
		Event:     event,
		Detail:    detail,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal system message: %w", err)
	}

	if err := ns.conn.Publish(SubjectSystemEvents, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectSystemEvents, err)
	}

	return nil
}

// SubscribeToCommands subscribes to processed voice command events
func (ns *NATSService) SubscribeToCommands(handler func(*CommandMessage)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectVoiceCommands, func(m *nats.Msg) {
		var msg CommandMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			logging.Sugar.Errorw("❌ Error unmarshaling command message", "error", err)
			return
		}
		handler(&msg)
	})
}

// SubscribeToReports subscribes to generated report events
func (ns *NATSService) SubscribeToReports(handler func(*ReportMessage)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectReports, func(m *nats.Msg) {
		var msg ReportMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			logging.Sugar.Errorw("❌ Error unmarshaling report message", "error", err)
			return
		}
		handler(&msg)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
