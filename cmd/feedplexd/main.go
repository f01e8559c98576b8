package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/feedplex/feedplex/internal/config"
	"github.com/feedplex/feedplex/internal/daemon"
	"github.com/feedplex/feedplex/internal/session"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	configDefault := ""
	if cfg, err := config.Load(session.ConfigPath()); err == nil {
		configDefault = cfg.DefaultProfile
	}

	profile := session.ResolveProfile(*profileFlag, configDefault)
	if err := session.ValidateProfile(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Profile: profile}),
	)

	app.Run()
}
