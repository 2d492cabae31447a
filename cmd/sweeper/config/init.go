package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/cliui"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/config"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/dotdir"
)

const initLongDesc string = `Write a preset config.toml to the .sweeper/ directory.

Presets capture the common deployment shapes:
  text      Text-only sessions: in-memory storage, no robot or speech
  device    On-robot gateway: SQLite storage, local MQTT broker
  server    Fleet backend: Postgres storage, Kafka turn events

The written file can then be tuned with "sweeper config set".

Examples:
  sweeper config init device
  sweeper config init server`

const initShortDesc string = "Write a preset config file"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <preset>",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runInit(args[0], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidPresetNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runInit(preset, configDir string) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return fmt.Errorf("%w\n\nValid presets: %s", err, strings.Join(config.ValidPresetNames(), ", "))
	}

	// Creates the .sweeper/ directory when this is the first sweeper
	// command run on the machine.
	if _, err := dotdir.NewManager().Ensure(configDir); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("\n  %s Wrote %s preset to %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strings.ToLower(preset)),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
