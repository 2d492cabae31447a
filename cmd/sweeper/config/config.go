// Package configcmder provides the config command for managing persistent
// sweeper configuration stored in the .sweeper/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent sweeper configuration.

Configuration is stored as config.toml in the .sweeper/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, and SWEEPER_-prefixed environment variables sit
between the two.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_url,
  bot.base_url, bot.bot_id, bot.user_id,
  speech.asr_url, speech.tts_url, speech.cuid,
  speech.voice, speech.speed, speech.volume, speech.pitch,
  robot.mqtt_broker, robot.mqtt_client_id, robot.mqtt_topic,
  api.listen, client.api_target,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  conversation.idle_timeout

Use subcommands to get, set, list, or initialize configuration:
  sweeper config set <key> <value>    Set a configuration value
  sweeper config get <key>            Get a configuration value
  sweeper config list                 List all configuration values
  sweeper config init <preset>        Write a preset config file

Examples:
  sweeper config set bot.bot_id 7372658062527xxxxx
  sweeper config set speech.voice 4
  sweeper config get robot.mqtt_broker
  sweeper config list`

const configShortDesc string = "Manage persistent sweeper configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}
