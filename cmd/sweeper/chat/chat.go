// Package chatcmder provides the chat command for talking to the cleaning
// robot's assistant from the terminal.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/bot"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/cliui"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/config"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/conversation"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/credentials"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/dotdir"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/logger"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/robot"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("sweeper> ")
)

var chatFlagSet = config.FlagSet{
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
	config.FlagIdleTimeout: {
		Name:        "idle-timeout",
		ViperKey:    "conversation.idle_timeout",
		Description: "Abort a turn when no event arrives for this long (e.g. 30s, 0 disables)",
	},
}

var chatFlagKeys = []string{
	config.FlagBotURL,
	config.FlagBotID,
	config.FlagUserID,
	config.FlagIdleTimeout,
}

type chatCommander struct {
	botURL      string
	botID       string
	userID      string
	idleTimeout string
	configDir   string
	debug       bool

	viper  *viper.Viper
	logger *zap.Logger
}

const chatLongDesc string = `Start an interactive chat session with the cleaning robot's assistant.

Messages go straight to the agent platform; replies stream back token by
token and are sanitized before display. Commands the assistant issues
(start cleaning, recharge, ...) are shown but not sent to a robot.

If a saved session exists (in the .sweeper/ directory), the conversation
resumes from it. Each completed turn updates the saved session.

Type /reset to discard the saved session and start a fresh conversation,
/exit or Ctrl+D to quit.

Examples:
  sweeper chat --bot-id 7372***
  SWEEPER_BOT_TOKEN=pat_... sweeper chat -b 7372***`

const chatShortDesc string = "Interactive chat with the robot's assistant"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, chatFlagSet, chatFlagKeys)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.botURL = cmder.viper.GetString("bot.base_url")
			cmder.botID = cmder.viper.GetString("bot.bot_id")
			cmder.userID = cmder.viper.GetString("bot.user_id")
			cmder.idleTimeout = cmder.viper.GetString("conversation.idle_timeout")

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, chatFlagSet, config.FlagBotURL, &cmder.botURL)
	config.AddStringFlag(cmd, chatFlagSet, config.FlagBotID, &cmder.botID)
	config.AddStringFlag(cmd, chatFlagSet, config.FlagUserID, &cmder.userID)
	config.AddStringFlag(cmd, chatFlagSet, config.FlagIdleTimeout, &cmder.idleTimeout)

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.botID == "" {
		return errors.New("no agent configured: set bot.bot_id via --bot-id, SWEEPER_BOT_BOT_ID, or config.toml")
	}

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	token, err := creds.Resolve(credentials.ServiceBot)
	if err != nil {
		return fmt.Errorf("resolving bot token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("no bot token: run 'sweeper auth bot' or set %s",
			credentials.EnvVarForService(credentials.ServiceBot))
	}

	var idleTimeout time.Duration
	if c.idleTimeout != "" && c.idleTimeout != "0" {
		idleTimeout, err = time.ParseDuration(c.idleTimeout)
		if err != nil {
			return fmt.Errorf("invalid conversation.idle_timeout %q: %w", c.idleTimeout, err)
		}
	}

	client := bot.NewClient(bot.Config{
		BaseURL: c.botURL,
		Token:   token,
		BotID:   c.botID,
		UserID:  c.userID,
	}, c.logger)

	session := conversation.NewSession(conversation.Config{
		Streamer:    conversation.ClientStreamer{Client: client},
		Robot:       robot.NewStore(),
		IdleTimeout: idleTimeout,
		// Raw deltas stream dim as a live preview; the sanitized reply is
		// rendered properly once the turn completes.
		OnDelta: func(text string) { fmt.Print(cliui.DimStyle.Render(text)) },
		Logger:  c.logger,
	})

	// Resume a saved session, if any.
	ddm := dotdir.NewManager()
	saved, err := ddm.LoadSessionState(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}

	fmt.Println()
	if saved != nil && saved.ConversationID != "" {
		entries := make([]conversation.Entry, 0, len(saved.Messages))
		for _, msg := range saved.Messages {
			entries = append(entries, conversation.Entry{Role: msg.Role, Content: msg.Content})
		}
		session.Restore(saved.ConversationID, saved.ChatID, entries)
		fmt.Printf("  %s Resuming conversation %s\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(saved.Messages))),
		)
	} else {
		fmt.Printf("  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Agent:"),
		cliui.NameStyle.Render(c.botID),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /reset starts over, /exit or Ctrl+D quits."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}
		if input == "/reset" {
			session.Reset()
			if err := ddm.ClearSession(c.configDir); err != nil {
				return fmt.Errorf("clearing session state: %w", err)
			}
			fmt.Printf("  %s Session cleared\n\n", cliui.SuccessMark)
			continue
		}

		if err := c.turn(session, ddm, input); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n\n", cliui.FailMark, err)
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// turn submits one user message, streaming the reply to stdout, and
// persists the updated session on success.
func (c *chatCommander) turn(session *conversation.Session, ddm *dotdir.Manager, input string) error {
	before := len(session.Snapshot().Entries)

	fmt.Print(assistantPrompt)
	err := session.Submit(context.Background(), input)
	fmt.Println()

	if err != nil {
		var upstream conversation.UpstreamError
		if errors.As(err, &upstream) {
			return fmt.Errorf("agent error %d: %s", upstream.Code, upstream.Msg)
		}
		return err
	}

	snapshot := session.Snapshot()

	// The user entry always lands; no assistant entry past it means the
	// reply was structural or suppressed by the sanitizer.
	spoke := false
	for _, entry := range snapshot.Entries[before:] {
		if entry.Role != bot.RoleAssistant {
			continue
		}
		spoke = true

		rendered, err := cliui.RenderMarkdown(entry.Content)
		if err != nil {
			rendered = entry.Content
		}
		fmt.Print(rendered)
	}
	if !spoke {
		fmt.Print(cliui.DimStyle.Render("(nothing to say)"))
		fmt.Println()
	}
	fmt.Println()

	state := &dotdir.SessionState{
		ConversationID: snapshot.ConversationID,
		ChatID:         snapshot.ChatID,
	}
	for _, entry := range snapshot.Entries {
		state.Messages = append(state.Messages, dotdir.SessionMessage{
			Role:    entry.Role,
			Content: entry.Content,
		})
	}

	if err := ddm.SaveSession(state, c.configDir); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}

	return nil
}
