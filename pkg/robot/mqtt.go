package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// CommandPublisher forwards commands to the physical robot.
type CommandPublisher interface {
	PublishCommand(ctx context.Context, cmd *Command) error
	Close() error
}

// MQTTConfig holds the broker connection settings for the robot's command
// topic.
type MQTTConfig struct {
	// BrokerURL is the broker address, e.g. "tcp://192.168.1.10:1883".
	BrokerURL string

	// ClientID identifies this gateway on the broker.
	ClientID string

	// Topic is the robot's command topic.
	Topic string

	Username string
	Password string
}

// MQTTPublisher publishes commands to the robot's MQTT command topic with
// QoS 1.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(config MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(config.BrokerURL).
		SetClientID(config.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", config.BrokerURL, token.Error())
	}

	logger.Info("connected to robot command broker",
		zap.String("broker", config.BrokerURL),
		zap.String("topic", config.Topic),
	)

	return &MQTTPublisher{
		client: client,
		topic:  config.Topic,
		logger: logger,
	}, nil
}

// PublishCommand sends the command as JSON to the configured topic.
func (p *MQTTPublisher) PublishCommand(ctx context.Context, cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("cannot publish nil command")
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing command %q: %w", cmd.Name, err)
	}

	p.logger.Debug("published robot command",
		zap.String("command", cmd.Name),
		zap.String("topic", p.topic),
	)

	return nil
}

// Close disconnects from the broker, allowing in-flight messages a short
// drain window.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// NopPublisher discards commands. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

// NewNopPublisher creates a publisher that drops every command.
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

// PublishCommand validates input and otherwise does nothing.
func (p *NopPublisher) PublishCommand(_ context.Context, cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("cannot publish nil command")
	}
	return nil
}

// Close is a no-op.
func (p *NopPublisher) Close() error {
	return nil
}
