package main

import (
	"context"
	"fmt"
	"os"

	"github.com/moodlink/internal/cli"
	"github.com/moodlink/internal/config"
	"github.com/moodlink/internal/logger"
)

func main() {
	cfg := config.LoadClient()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cli.NewApp(cfg, log, nil).Execute(context.Background(), os.Args[1:], nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
