package configcmder_test

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/config"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/config"
)

// newTestCmd builds the config command tree with the config-dir persistent
// flag the root command normally provides.
func newTestCmd() *cobra.Command {
	cmd := configcmder.NewConfigCmd()
	cmd.PersistentFlags().String("config-dir", "", "Override path to .sweeper/ config directory")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

var _ = Describe("Config Command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewConfigCmd", func() {
		It("registers the set, get, list, and init subcommands", func() {
			cmd := configcmder.NewConfigCmd()

			names := []string{}
			for _, sub := range cmd.Commands() {
				names = append(names, sub.Name())
			}
			Expect(names).To(ContainElements("set", "get", "list", "init"))
		})
	})

	Describe("config set", func() {
		It("writes the value to config.toml", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"set", "bot.bot_id", "7372658062527", "--config-dir", tmpDir})

			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Bot.BotID).To(Equal("7372658062527"))
		})

		It("rejects unknown keys", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"set", "bot.nope", "x", "--config-dir", tmpDir})

			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("rejects non-numeric voice values", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"set", "speech.voice", "loud", "--config-dir", tmpDir})

			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("config get", func() {
		It("reads back a set value", func() {
			setCmd := newTestCmd()
			setCmd.SetArgs([]string{"set", "robot.mqtt_topic", "sweeper/cmd", "--config-dir", tmpDir})
			Expect(setCmd.Execute()).To(Succeed())

			getCmd := newTestCmd()
			getCmd.SetArgs([]string{"get", "robot.mqtt_topic", "--config-dir", tmpDir})
			Expect(getCmd.Execute()).To(Succeed())
		})

		It("rejects unknown keys", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"get", "nope.nope", "--config-dir", tmpDir})

			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("config list", func() {
		It("lists without a config file present", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"list", "--config-dir", tmpDir})
			Expect(cmd.Execute()).To(Succeed())
		})
	})

	Describe("config init", func() {
		It("writes the device preset", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"init", "device", "--config-dir", tmpDir})
			Expect(cmd.Execute()).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Storage.Driver).To(Equal("sqlite"))
		})

		It("writes the server preset", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"init", "server", "--config-dir", tmpDir})
			Expect(cmd.Execute()).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Storage.Driver).To(Equal("postgres"))
			Expect(cfg.Eventstream.Provider).To(Equal("kafka"))
		})

		It("rejects unknown presets", func() {
			cmd := newTestCmd()
			cmd.SetArgs([]string{"init", "spaceship", "--config-dir", tmpDir})

			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
		})
	})
})

// loadConfig is a test helper that reads and parses the config.toml from
// the given config directory.
func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	err = toml.Unmarshal(data, cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return cfg
}
