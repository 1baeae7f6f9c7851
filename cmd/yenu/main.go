package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yenulab/yenu/internal/assets"
	"github.com/yenulab/yenu/internal/config"
	"github.com/yenulab/yenu/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	// A missing .env file is fine; the defaults stand.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	as := assets.New(cfg)
	st := store.New(cfg, as)

	app := newCLIApp(st, as, cfg)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
