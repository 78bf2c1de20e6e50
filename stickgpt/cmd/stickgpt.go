// Command-line interface for inspecting and resetting the stickgpt stores
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stickgpt/stickgpt/config"
	"stickgpt/stickgpt/sources"
	"stickgpt/stickgpt/utils/color"
	"stickgpt/stickgpt/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := sources.Open(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("storage backend error", zap.Error(err))
		fmt.Fprintln(os.Stderr, color.ColorError("cannot open storage: "+err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	cli := newCLI(backend, os.Stdout)
	if err := cli.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}
