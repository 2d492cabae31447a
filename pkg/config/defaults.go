package config

const (
	defaultStorageDriver = "memory"

	defaultBotBaseURL = "https://api.coze.cn"
	defaultBotUserID  = "sweeper_user"

	defaultASRURL = "https://vop.baidu.com/server_api"
	defaultTTSURL = "https://tsn.baidu.com/text2audio"
	defaultCUID   = "sweeper"

	defaultSpeechSpeed  = 5
	defaultSpeechVolume = 5
	defaultSpeechPitch  = 5

	defaultMQTTBroker   = "tcp://localhost:1883"
	defaultMQTTClientID = "sweeper-gateway"
	defaultMQTTTopic    = "sweeper/commands"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEventstreamProvider = "none"
	defaultKafkaBrokers        = "localhost:9092"
	defaultKafkaTopic          = "sweeper.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Bot: BotConfig{
			BaseURL: defaultBotBaseURL,
			UserID:  defaultBotUserID,
		},
		Speech: SpeechConfig{
			ASRURL: defaultASRURL,
			TTSURL: defaultTTSURL,
			CUID:   defaultCUID,
			Speed:  defaultSpeechSpeed,
			Volume: defaultSpeechVolume,
			Pitch:  defaultSpeechPitch,
		},
		Robot: RobotConfig{
			MQTTBroker:   defaultMQTTBroker,
			MQTTClientID: defaultMQTTClientID,
			MQTTTopic:    defaultMQTTTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Eventstream: EventstreamConfig{
			Provider: defaultEventstreamProvider,
			Brokers:  defaultKafkaBrokers,
			Topic:    defaultKafkaTopic,
		},
	}
}
