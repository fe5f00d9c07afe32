package main

import (
	"context"
	"os"

	logging "github.com/ipfs/go-log/v2"

	"github.com/lendcore/lendcore/cmd"
	"github.com/lendcore/lendcore/pkg/constants"
)

func main() {
	// set default log level if no flags given
	level := logging.LevelInfo
	if lvl := os.Getenv(constants.LogLevelEnv); lvl != "" {
		if l, err := logging.LevelFromString(lvl); err == nil {
			level = l
		}
	}
	logging.SetAllLoggers(level)
	logging.SetLogLevel("badger", "warn") // nolint: errcheck

	os.Exit(cmd.Run(context.Background(), os.Args, os.Stdout, os.Stderr))
}
