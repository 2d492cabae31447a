// Package initcmder provides the init command for initializing a local
// .sweeper directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	dirName = ".sweeper"
)

const initLongDesc string = `Initialize a new .sweeper/ directory in the current working directory.

Creates a local .sweeper/ directory that takes precedence over the default
~/.sweeper/ directory for configuration, credentials, saved sessions,
and other sweeper state.

This is useful for maintaining separate sweeper state per project or
per robot.

Examples:
  sweeper init`

const initShortDesc string = "Initialize a local .sweeper/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .sweeper directory: %w", err)
	}

	fmt.Printf("Initialized .sweeper directory: %s\n", dir)
	return nil
}
