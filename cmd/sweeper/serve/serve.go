// Package servecmder provides the serve command that runs the gateway:
// the conversation orchestrator, the robot command channel, and the HTTP API.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/api"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/bot"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/config"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/conversation"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/conversation/worker"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/credentials"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/eventstream"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/eventstream/kafka"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/eventstream/nop"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/logger"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/robot"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/sanitize"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/speech"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage/inmemory"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage/postgres"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/storage/sqlite"
)

// serveFlagSet defines the flags the serve command exposes. Each entry maps
// a CLI flag to its dotted viper key so flag > env > file > default holds.
var serveFlagSet = config.FlagSet{
	config.FlagAPIListen: {
		Name:        "api-listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the gateway API server to listen on",
	},
	config.FlagBotURL: {
		Name:        "bot-url",
		ViperKey:    "bot.base_url",
		Description: "Agent platform base URL",
	},
	config.FlagBotID: {
		Name:        "bot-id",
		Shorthand:   "b",
		ViperKey:    "bot.bot_id",
		Description: "Agent ID to converse with",
	},
	config.FlagUserID: {
		Name:        "user-id",
		Shorthand:   "u",
		ViperKey:    "bot.user_id",
		Description: "End-user ID reported on turn requests",
	},
	config.FlagStorageDriver: {
		Name:        "storage-driver",
		ViperKey:    "storage.driver",
		Description: "Transcript storage driver (memory, sqlite, postgres)",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite transcript database",
	},
	config.FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_url",
		Description: "Postgres connection string for transcript storage",
	},
	config.FlagMQTTBroker: {
		Name:        "mqtt-broker",
		ViperKey:    "robot.mqtt_broker",
		Description: "MQTT broker URL for the robot command channel",
	},
	config.FlagMQTTTopic: {
		Name:        "mqtt-topic",
		ViperKey:    "robot.mqtt_topic",
		Description: "MQTT topic cleaning commands are published to",
	},
	config.FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma-separated Kafka bootstrap brokers for turn events",
	},
	config.FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic turn-completed events are written to",
	},
	config.FlagIdleTimeout: {
		Name:        "idle-timeout",
		ViperKey:    "conversation.idle_timeout",
		Description: "Abort a turn when no event arrives for this long (e.g. 30s, 0 disables)",
	},
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagBotURL,
	config.FlagBotID,
	config.FlagUserID,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagMQTTBroker,
	config.FlagMQTTTopic,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagIdleTimeout,
}

type ServeCommander struct {
	apiListen     string
	botURL        string
	botID         string
	userID        string
	storageDriver string
	sqlitePath    string
	postgresURL   string
	mqttBroker    string
	mqttTopic     string
	kafkaBrokers  string
	kafkaTopic    string
	idleTimeout   string
	configDir     string
	debug         bool

	viper  *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the sweeper gateway.

The gateway holds the live conversation with the agent platform, routes
cleaning commands to the robot over MQTT, voices sanitized replies through
the speech service, persists completed turns, and exposes an HTTP API for
submitting chat turns and inspecting state.

Configuration follows flag > environment > config.toml > defaults.
Environment variables use the SWEEPER_ prefix (e.g. SWEEPER_BOT_BOT_ID).

Examples:
  sweeper serve --bot-id 7372*** --sqlite sweeper.db
  sweeper serve --storage-driver postgres --postgres postgres://...
  SWEEPER_BOT_TOKEN=pat_... sweeper serve -b 7372***`

const serveShortDesc string = "Run the sweeper gateway"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlagSet, serveFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.resolve()
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlagSet, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagBotURL, &cmder.botURL)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagBotID, &cmder.botID)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagUserID, &cmder.userID)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagPostgres, &cmder.postgresURL)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagMQTTBroker, &cmder.mqttBroker)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagMQTTTopic, &cmder.mqttTopic)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddStringFlag(cmd, serveFlagSet, config.FlagIdleTimeout, &cmder.idleTimeout)

	return cmd
}

// resolve pulls final values out of viper so the full precedence chain
// (flag > env > file > default) applies, not just flag defaults.
func (c *ServeCommander) resolve() {
	v := c.viper
	c.apiListen = v.GetString("api.listen")
	c.botURL = v.GetString("bot.base_url")
	c.botID = v.GetString("bot.bot_id")
	c.userID = v.GetString("bot.user_id")
	c.storageDriver = v.GetString("storage.driver")
	c.sqlitePath = v.GetString("storage.sqlite_path")
	c.postgresURL = v.GetString("storage.postgres_url")
	c.mqttBroker = v.GetString("robot.mqtt_broker")
	c.mqttTopic = v.GetString("robot.mqtt_topic")
	c.kafkaBrokers = v.GetString("eventstream.brokers")
	c.kafkaTopic = v.GetString("eventstream.topic")
	c.idleTimeout = v.GetString("conversation.idle_timeout")
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.botID == "" {
		return fmt.Errorf("no agent configured: set bot.bot_id via --bot-id, SWEEPER_BOT_BOT_ID, or config.toml")
	}

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	botToken, err := creds.Resolve(credentials.ServiceBot)
	if err != nil {
		return fmt.Errorf("resolving bot token: %w", err)
	}
	if botToken == "" {
		return fmt.Errorf("no bot token: run 'sweeper auth bot' or set %s",
			credentials.EnvVarForService(credentials.ServiceBot))
	}

	driver, err := c.newStorageDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.newEventPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	commands := c.newCommandPublisher()
	defer commands.Close()

	robotStore := robot.NewStore()
	synthesizer := c.newSynthesizer(creds)
	recognizer := c.newRecognizer(creds)

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Project:   "sweeper",
		BotID:     c.botID,
		UserID:    c.userID,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	client := bot.NewClient(bot.Config{
		BaseURL: c.botURL,
		Token:   botToken,
		BotID:   c.botID,
		UserID:  c.userID,
	}, c.logger)

	idleTimeout, err := c.parseIdleTimeout()
	if err != nil {
		return err
	}

	session := conversation.NewSession(conversation.Config{
		Streamer:         conversation.ClientStreamer{Client: client},
		Sanitizer:        c.newSanitizer(),
		Synthesizer:      synthesizer,
		SynthesisOptions: c.synthesisOptions(),
		Robot:            robotStore,
		Commands:         commands,
		Pool:             pool,
		IdleTimeout:      idleTimeout,
		Logger:           c.logger,
	})

	server := api.NewServer(api.Config{
		ListenAddr: c.apiListen,
	}, driver, robotStore, session, recognizer, c.logger)

	// Reply-filter tuning (sanitize.denylist) reloads without a restart.
	config.Watch(c.viper, c.logger, func() {
		session.SetSanitizer(c.newSanitizer())
	})

	c.logger.Info("starting gateway",
		zap.String("api_addr", c.apiListen),
		zap.String("bot_id", c.botID),
		zap.String("storage", c.storageDriver),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		session.Cancel()
		return server.Shutdown()
	}
}

func (c *ServeCommander) newStorageDriver() (storage.Driver, error) {
	switch c.storageDriver {
	case "sqlite":
		path := c.sqlitePath
		if path == "" {
			path = "sweeper.db"
		}
		driver, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite driver: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return driver, nil

	case "postgres":
		if c.postgresURL == "" {
			return nil, fmt.Errorf("storage.driver is postgres but no storage.postgres_url set")
		}
		driver, err := postgres.NewDriver(context.Background(), c.postgresURL)
		if err != nil {
			return nil, fmt.Errorf("creating Postgres driver: %w", err)
		}
		c.logger.Info("using Postgres storage")
		return driver, nil

	case "", "memory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q (memory, sqlite, postgres)", c.storageDriver)
	}
}

func (c *ServeCommander) newEventPublisher() (eventstream.Publisher, error) {
	provider := c.viper.GetString("eventstream.provider")
	switch provider {
	case "kafka":
		brokers := strings.Split(c.kafkaBrokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   c.kafkaTopic,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("creating Kafka publisher: %w", err)
		}
		c.logger.Info("publishing turn events to Kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", c.kafkaTopic),
		)
		return publisher, nil

	case "", "none":
		return nop.NewPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider %q (none, kafka)", provider)
	}
}

// newCommandPublisher connects to the robot's MQTT broker. The gateway stays
// useful without the robot online, so connection failure degrades to a
// no-op publisher rather than aborting startup.
func (c *ServeCommander) newCommandPublisher() robot.CommandPublisher {
	if c.mqttBroker == "" {
		c.logger.Info("no MQTT broker configured, robot commands disabled")
		return robot.NewNopPublisher()
	}

	publisher, err := robot.NewMQTTPublisher(robot.MQTTConfig{
		BrokerURL: c.mqttBroker,
		ClientID:  c.viper.GetString("robot.mqtt_client_id"),
		Topic:     c.mqttTopic,
	}, c.logger)
	if err != nil {
		c.logger.Warn("MQTT broker unreachable, robot commands disabled",
			zap.String("broker", c.mqttBroker),
			zap.Error(err),
		)
		return robot.NewNopPublisher()
	}

	c.logger.Info("robot command channel connected",
		zap.String("broker", c.mqttBroker),
		zap.String("topic", c.mqttTopic),
	)
	return publisher
}

// newSynthesizer builds the reply voice. Without a speech token the
// assistant still answers in text, it just stays silent.
func (c *ServeCommander) newSynthesizer(creds *credentials.Manager) speech.Synthesizer {
	token, err := creds.Resolve(credentials.ServiceSpeech)
	if err != nil || token == "" {
		c.logger.Info("no speech token, reply synthesis disabled")
		return nil
	}

	ttsURL := c.viper.GetString("speech.tts_url")
	if ttsURL == "" {
		return nil
	}

	return speech.NewHTTPSynthesizer(speech.SynthesizerConfig{
		Target:   ttsURL,
		Token:    token,
		DeviceID: c.viper.GetString("speech.cuid"),
	}, c.logger)
}

// newRecognizer builds the microphone transcriber. Without a speech
// token the /recognize endpoint reports unavailability.
func (c *ServeCommander) newRecognizer(creds *credentials.Manager) speech.Recognizer {
	token, err := creds.Resolve(credentials.ServiceSpeech)
	if err != nil || token == "" {
		c.logger.Info("no speech token, recognition disabled")
		return nil
	}

	asrURL := c.viper.GetString("speech.asr_url")
	if asrURL == "" {
		return nil
	}

	return speech.NewHTTPRecognizer(speech.RecognizerConfig{
		Target:   asrURL,
		Token:    token,
		DeviceID: c.viper.GetString("speech.cuid"),
	}, c.logger)
}

// newSanitizer builds the reply filter from the defaults plus any extra
// denylist phrases in the live config.
func (c *ServeCommander) newSanitizer() *sanitize.Sanitizer {
	cfg := sanitize.DefaultConfig()
	for _, phrase := range strings.Split(c.viper.GetString("sanitize.denylist"), ",") {
		phrase = strings.TrimSpace(phrase)
		if phrase != "" {
			cfg.Denylist = append(cfg.Denylist, phrase)
		}
	}
	return sanitize.New(cfg)
}

func (c *ServeCommander) synthesisOptions() speech.SynthesisOptions {
	v := c.viper
	return speech.SynthesisOptions{
		Voice:  v.GetInt("speech.voice"),
		Speed:  v.GetInt("speech.speed"),
		Volume: v.GetInt("speech.volume"),
		Pitch:  v.GetInt("speech.pitch"),
	}
}

func (c *ServeCommander) parseIdleTimeout() (time.Duration, error) {
	if c.idleTimeout == "" || c.idleTimeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.idleTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid conversation.idle_timeout %q: %w", c.idleTimeout, err)
	}
	return d, nil
}
