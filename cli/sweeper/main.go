package main

import (
	"os"

	sweepercmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper"
)

func main() {
	cmd := sweepercmder.NewSweeperCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
