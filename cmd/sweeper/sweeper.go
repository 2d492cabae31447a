// Package sweepercmder
package sweepercmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/auth"
	chatcmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/chat"
	configcmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/config"
	initcmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/init"
	servecmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/serve"
	versioncmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/version"
)

const sweeperLongDesc string = `Sweeper is the conversational gateway for the home cleaning robot.

It connects the robot's voice pipeline to a cloud agent platform: user
utterances stream up, assistant replies stream back, get sanitized for
speech, and cleaning commands are routed to the robot.

Run services using:
  sweeper serve        Run the gateway and its HTTP API
  sweeper chat         Talk to the assistant from the terminal`

const sweeperShortDesc string = "Sweeper - Cleaning Robot Voice Gateway"

func NewSweeperCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweeper",
		Short: sweeperShortDesc,
		Long:  sweeperLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .sweeper/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
