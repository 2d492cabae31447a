package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the SWEEPER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SWEEPER_API_LISTEN, SWEEPER_BOT_BOT_ID, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: SWEEPER_API_LISTEN, SWEEPER_STORAGE_DRIVER, etc.
	v.SetEnvPrefix("SWEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Watch re-reads the config file on change and invokes onChange, if set.
// Long-running commands (sweeper serve) use this so voice and sanitizer
// tuning can be adjusted without a restart.
func Watch(v *viper.Viper, logger *zap.Logger, onChange func()) {
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed, reloading", zap.String("file", e.Name))
		if onChange != nil {
			onChange()
		}
	})
	v.WatchConfig()
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_url", d.Storage.PostgresURL)

	// Bot
	v.SetDefault("bot.base_url", d.Bot.BaseURL)
	v.SetDefault("bot.bot_id", d.Bot.BotID)
	v.SetDefault("bot.user_id", d.Bot.UserID)

	// Speech
	v.SetDefault("speech.asr_url", d.Speech.ASRURL)
	v.SetDefault("speech.tts_url", d.Speech.TTSURL)
	v.SetDefault("speech.cuid", d.Speech.CUID)
	v.SetDefault("speech.voice", d.Speech.Voice)
	v.SetDefault("speech.speed", d.Speech.Speed)
	v.SetDefault("speech.volume", d.Speech.Volume)
	v.SetDefault("speech.pitch", d.Speech.Pitch)

	// Robot
	v.SetDefault("robot.mqtt_broker", d.Robot.MQTTBroker)
	v.SetDefault("robot.mqtt_client_id", d.Robot.MQTTClientID)
	v.SetDefault("robot.mqtt_topic", d.Robot.MQTTTopic)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Eventstream
	v.SetDefault("eventstream.provider", d.Eventstream.Provider)
	v.SetDefault("eventstream.brokers", d.Eventstream.Brokers)
	v.SetDefault("eventstream.topic", d.Eventstream.Topic)

	// Conversation
	v.SetDefault("conversation.idle_timeout", d.Conversation.IdleTimeout)

	// Sanitize
	v.SetDefault("sanitize.denylist", d.Sanitize.Denylist)
}
