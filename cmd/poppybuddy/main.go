// Command poppybuddy builds, checks and previews the Poppy and Buddy story site.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"poppybuddy/pkg/config"
	"poppybuddy/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("CRITICAL ERROR: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "poppybuddy",
		Usage:   l10n.T("Build and preview the Poppy and Buddy story site"),
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   l10n.T("Path to the configuration file"),
				EnvVars: []string{"POPPY_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init-config",
				Usage: l10n.T("Write the default configuration file"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "catalog", Usage: l10n.T("Also export the built-in catalog to this .yaml or .toml file")},
				},
				Action: runInitConfig,
			},
			{
				Name:  "routes",
				Usage: l10n.T("List every generated route"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "story", Usage: l10n.T("Only list routes of this story")},
					&cli.BoolFlag{Name: "json", Usage: l10n.T("Print JSON instead of one path per line")},
					&cli.BoolFlag{Name: "built", Usage: l10n.T("Only list pages recorded by the last build")},
				},
				Action: runRoutes,
			},
			{
				Name:  "build",
				Usage: l10n.T("Render the static site"),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clean", Usage: l10n.T("Remove the output directory first")},
					&cli.BoolFlag{Name: "share-cards", Usage: l10n.T("Render share card images")},
					&cli.BoolFlag{Name: "verify", Value: true, Usage: l10n.T("Check the generated pages after the build")},
				},
				Action: runBuild,
			},
			{
				Name:  "check",
				Usage: l10n.T("Check the catalog and, optionally, the remote audio files"),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "assets", Usage: l10n.T("Send a HEAD request for every audio file")},
					&cli.BoolFlag{Name: "strict", Usage: l10n.T("Fail on catalog warnings and missing audio")},
					&cli.StringFlag{Name: "probe-duration", Usage: l10n.T("Print the duration of a local audio file")},
				},
				Action: runCheck,
			},
			{
				Name:  "serve",
				Usage: l10n.T("Serve the built site and the player API"),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "build", Usage: l10n.T("Build the site before serving")},
					&cli.StringFlag{Name: "addr", Usage: l10n.T("Listen address (overrides server.address)")},
					&cli.BoolFlag{Name: "no-player", Usage: l10n.T("Disable host audio playback")},
				},
				Action: runServe,
			},
			{
				Name:      "play",
				Usage:     l10n.T("Play a story on this computer's speakers"),
				ArgsUsage: "[STORY PRIMARY SECONDARY]",
				Action:    runPlay,
			},
		},
	}
}
