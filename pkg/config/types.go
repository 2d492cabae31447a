package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent sweeper configuration stored as config.toml
// in the .sweeper/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version      int                `toml:"version"`
	Storage      StorageConfig      `toml:"storage"`
	Bot          BotConfig          `toml:"bot"`
	Speech       SpeechConfig       `toml:"speech"`
	Robot        RobotConfig        `toml:"robot"`
	API          APIConfig          `toml:"api"`
	Client       ClientConfig       `toml:"client"`
	Eventstream  EventstreamConfig  `toml:"eventstream"`
	Conversation ConversationConfig `toml:"conversation"`
	Sanitize     SanitizeConfig     `toml:"sanitize"`
}

// StorageConfig holds transcript store settings.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresURL string `toml:"postgres_url,omitempty"`
}

// BotConfig holds the conversational-agent platform settings.
type BotConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	BotID   string `toml:"bot_id,omitempty"`
	UserID  string `toml:"user_id,omitempty"`
}

// SpeechConfig holds the speech cloud endpoints and voice parameters.
type SpeechConfig struct {
	ASRURL string `toml:"asr_url,omitempty"`
	TTSURL string `toml:"tts_url,omitempty"`
	CUID   string `toml:"cuid,omitempty"`
	Voice  uint   `toml:"voice,omitempty"`
	Speed  uint   `toml:"speed,omitempty"`
	Volume uint   `toml:"volume,omitempty"`
	Pitch  uint   `toml:"pitch,omitempty"`
}

// RobotConfig holds the robot command-channel settings.
type RobotConfig struct {
	MQTTBroker   string `toml:"mqtt_broker,omitempty"`
	MQTTClientID string `toml:"mqtt_client_id,omitempty"`
	MQTTTopic    string `toml:"mqtt_topic,omitempty"`
}

// APIConfig holds gateway API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// gateway API server (e.g. sweeper status). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventstreamConfig holds the turn-event publishing settings.
type EventstreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// ConversationConfig holds orchestrator tuning options.
type ConversationConfig struct {
	// IdleTimeout aborts a turn when no event arrives for this duration,
	// e.g. "30s". Empty disables the timeout.
	IdleTimeout string `toml:"idle_timeout,omitempty"`
}

// SanitizeConfig holds reply-filter tuning. Values extend the built-in
// defaults rather than replacing them.
type SanitizeConfig struct {
	// Denylist is a comma-separated list of extra phrases whose presence
	// suppresses an assistant reply. Reloaded live by sweeper serve.
	Denylist string `toml:"denylist,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) uint, set func(c *Config, v uint)) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid numeric value %q: %w", v, err)
			}
			set(c, uint(n))
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_url": {
		get: func(c *Config) string { return c.Storage.PostgresURL },
		set: func(c *Config, v string) error { c.Storage.PostgresURL = v; return nil },
	},
	"bot.base_url": {
		get: func(c *Config) string { return c.Bot.BaseURL },
		set: func(c *Config, v string) error { c.Bot.BaseURL = v; return nil },
	},
	"bot.bot_id": {
		get: func(c *Config) string { return c.Bot.BotID },
		set: func(c *Config, v string) error { c.Bot.BotID = v; return nil },
	},
	"bot.user_id": {
		get: func(c *Config) string { return c.Bot.UserID },
		set: func(c *Config, v string) error { c.Bot.UserID = v; return nil },
	},
	"speech.asr_url": {
		get: func(c *Config) string { return c.Speech.ASRURL },
		set: func(c *Config, v string) error { c.Speech.ASRURL = v; return nil },
	},
	"speech.tts_url": {
		get: func(c *Config) string { return c.Speech.TTSURL },
		set: func(c *Config, v string) error { c.Speech.TTSURL = v; return nil },
	},
	"speech.cuid": {
		get: func(c *Config) string { return c.Speech.CUID },
		set: func(c *Config, v string) error { c.Speech.CUID = v; return nil },
	},
	"speech.voice": uintKey(
		func(c *Config) uint { return c.Speech.Voice },
		func(c *Config, v uint) { c.Speech.Voice = v },
	),
	"speech.speed": uintKey(
		func(c *Config) uint { return c.Speech.Speed },
		func(c *Config, v uint) { c.Speech.Speed = v },
	),
	"speech.volume": uintKey(
		func(c *Config) uint { return c.Speech.Volume },
		func(c *Config, v uint) { c.Speech.Volume = v },
	),
	"speech.pitch": uintKey(
		func(c *Config) uint { return c.Speech.Pitch },
		func(c *Config, v uint) { c.Speech.Pitch = v },
	),
	"robot.mqtt_broker": {
		get: func(c *Config) string { return c.Robot.MQTTBroker },
		set: func(c *Config, v string) error { c.Robot.MQTTBroker = v; return nil },
	},
	"robot.mqtt_client_id": {
		get: func(c *Config) string { return c.Robot.MQTTClientID },
		set: func(c *Config, v string) error { c.Robot.MQTTClientID = v; return nil },
	},
	"robot.mqtt_topic": {
		get: func(c *Config) string { return c.Robot.MQTTTopic },
		set: func(c *Config, v string) error { c.Robot.MQTTTopic = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.Eventstream.Provider },
		set: func(c *Config, v string) error { c.Eventstream.Provider = v; return nil },
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.Eventstream.Brokers },
		set: func(c *Config, v string) error { c.Eventstream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.Eventstream.Topic },
		set: func(c *Config, v string) error { c.Eventstream.Topic = v; return nil },
	},
	"conversation.idle_timeout": {
		get: func(c *Config) string { return c.Conversation.IdleTimeout },
		set: func(c *Config, v string) error { c.Conversation.IdleTimeout = v; return nil },
	},
	"sanitize.denylist": {
		get: func(c *Config) string { return c.Sanitize.Denylist },
		set: func(c *Config, v string) error { c.Sanitize.Denylist = v; return nil },
	},
}
