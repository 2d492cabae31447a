// Package authcmder provides the auth command for storing service tokens.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/cliui"
	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/credentials"
)

const authLongDesc string = `Store access tokens for the cloud services sweeper talks to.

Tokens are stored in credentials.toml in the .sweeper/ directory. A token
set in the environment (SWEEPER_BOT_TOKEN, SWEEPER_SPEECH_TOKEN) always
takes precedence over the stored one.

Supported services:
  bot       The conversational agent platform (personal access token)
  speech    The speech recognition and synthesis service

Examples:
  sweeper auth bot                 Prompt for the agent platform token
  sweeper auth speech              Prompt for the speech service token
  sweeper auth --list              List stored tokens
  sweeper auth --remove bot        Remove the stored agent token
  echo $TOKEN | sweeper auth bot   Pipe a token from stdin`

const authShortDesc string = "Store access tokens for cloud services"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [service]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case listFlag:
				return runList(configDir)
			case removeFlag != "":
				return runRemove(removeFlag, configDir)
			default:
				if len(args) == 0 {
					return fmt.Errorf("service argument required\n\nSupported services: %s",
						strings.Join(credentials.SupportedServices(), ", "))
				}
				return runAuth(args[0], configDir)
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedServices(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored tokens")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove the stored token for a service")

	return cmd
}

func runAuth(service, configDir string) error {
	service = strings.ToLower(strings.TrimSpace(service))

	if !credentials.IsSupportedService(service) {
		return fmt.Errorf("unsupported service: %q\n\nSupported services: %s",
			service, strings.Join(credentials.SupportedServices(), ", "))
	}

	token, err := readToken(service)
	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetToken(service, token); err != nil {
		return err
	}

	envVar := credentials.EnvVarForService(service)
	fmt.Printf("\n  %s Stored %s token %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(service),
		cliui.DimStyle.Render("(or set "+envVar+" to override)"),
	)

	return nil
}

func runList(configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	services, err := mgr.ListServices()
	if err != nil {
		return err
	}

	if len(services) == 0 {
		fmt.Printf("\n  %s No stored tokens.\n", cliui.DimStyle.Render("●"))
		fmt.Printf("  Use 'sweeper auth <service>' to store a token.\n")
		fmt.Printf("  Supported services: %s\n\n", strings.Join(credentials.SupportedServices(), ", "))
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Stored tokens"))
	for _, s := range services {
		envVar := credentials.EnvVarForService(s)
		if envVar != "" {
			fmt.Printf("  %s  %s  %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(s),
				cliui.DimStyle.Render("→ "+envVar),
			)
		} else {
			fmt.Printf("  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(s))
		}
	}
	fmt.Println()

	return nil
}

func runRemove(service, configDir string) error {
	service = strings.ToLower(strings.TrimSpace(service))

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveToken(service); err != nil {
		return err
	}

	fmt.Printf("\n  %s Removed %s token.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(service))

	return nil
}

// readToken reads a token from stdin. If stdin is a pipe, it reads the
// first line. Otherwise, it prompts interactively with hidden input.
func readToken(service string) (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	fmt.Printf("Enter %s token: ", service)
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(tokenBytes), nil
}
