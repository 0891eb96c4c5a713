package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"poppybuddy/internal/app"
	"poppybuddy/pkg/assetcheck"
	"poppybuddy/pkg/audio"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/config"
	"poppybuddy/pkg/kiosk"
	"poppybuddy/pkg/playback"
	"poppybuddy/pkg/probe"
	"poppybuddy/pkg/routes"
)

func runInitConfig(c *cli.Context) error {
	path := c.String("config")
	if err := config.GenerateDefault(path); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}
	fmt.Fprintln(c.App.Writer, l10n.F("Config file generated: %s", path))

	if out := c.String("catalog"); out != "" {
		if err := catalog.Default().WriteFile(out); err != nil {
			return fmt.Errorf("failed to export catalog: %w", err)
		}
		fmt.Fprintln(c.App.Writer, l10n.F("Catalog exported: %s", out))
	}
	return nil
}

type routeJSON struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	Story     string `json:"story"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

func runRoutes(c *cli.Context) error {
	rt, err := app.Open(c.String("config"), app.Options{Database: c.Bool("built")})
	if err != nil {
		return err
	}
	defer rt.Close()

	params := routes.Enumerate(rt.Catalog)
	if c.Bool("built") {
		if params, err = builtRoutes(c.Context, rt); err != nil {
			return err
		}
	}
	if story := c.String("story"); story != "" {
		params = routes.ForStory(params, story)
	}

	if c.Bool("json") {
		out := make([]routeJSON, 0, len(params))
		for _, r := range params {
			out = append(out, routeJSON{
				Path:      r.Path(),
				URL:       rt.Linker.PageURL(r.URLPath()),
				Story:     r.StoryName,
				Primary:   r.Primary,
				Secondary: r.Secondary,
			})
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, r := range params {
		fmt.Fprintln(c.App.Writer, r.Path())
	}
	return nil
}

// builtRoutes lists the routes recorded by the last build, sorted by path.
func builtRoutes(ctx context.Context, rt *app.Runtime) ([]routes.RouteParam, error) {
	entries, err := rt.Store().ListManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read build manifest: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New(l10n.T("No build recorded yet"))
	}
	params := make([]routes.RouteParam, 0, len(entries))
	for _, e := range entries {
		params = append(params, routes.RouteParam{StoryName: e.Story, Primary: e.PrimaryToken, Secondary: e.SecondaryToken})
	}
	return params, nil
}

func preflight(ctx context.Context, probes ...probe.Probe) error {
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("%s: %w", l10n.T("Preflight checks failed"), err)
	}
	return nil
}

func runBuild(c *cli.Context) error {
	rt, err := app.Open(c.String("config"), app.Options{Logging: true, Database: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	return build(c, rt, app.BuildOptions{Clean: c.Bool("clean"), ShareCards: c.Bool("share-cards")}, c.Bool("verify"))
}

func build(c *cli.Context, rt *app.Runtime, bo app.BuildOptions, verify bool) error {
	if err := preflight(c.Context,
		probe.Catalog(rt.Catalog),
		probe.WritableDir("Output Dir", rt.Config.Site.OutputDir),
	); err != nil {
		return err
	}

	b, err := rt.Builder(bo)
	if err != nil {
		return err
	}
	report, err := b.Build(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, l10n.F("Built %d pages for %d stories in %s", report.Pages, report.Stories, report.Elapsed.Round(time.Millisecond)))
	if report.ShareCards > 0 {
		fmt.Fprintln(w, l10n.F("%d share cards written", report.ShareCards))
	}

	if !verify {
		return nil
	}
	problems, err := b.Verify(routes.Enumerate(rt.Catalog))
	if err != nil {
		return err
	}
	for _, p := range problems {
		slog.Warn("Page mismatch", "route", p.Route, "detail", p.Message)
	}
	if len(problems) > 0 {
		return errors.New(l10n.F("%d generated pages do not match their route", len(problems)))
	}
	return nil
}

func runCheck(c *cli.Context) error {
	checkAssets := c.Bool("assets")
	rt, err := app.Open(c.String("config"), app.Options{Logging: true, Database: checkAssets})
	if err != nil {
		return err
	}
	defer rt.Close()
	w := c.App.Writer

	if p := c.String("probe-duration"); p != "" {
		d, err := audio.GetDuration(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, l10n.F("Duration of %s: %s", p, d.Round(time.Millisecond)))
	}

	warnings := rt.Catalog.Validate()
	for _, warn := range warnings {
		fmt.Fprintln(w, l10n.F("Catalog warning: %s", warn.String()))
	}

	enumerated := len(routes.Enumerate(rt.Catalog))
	expected := routes.Count(rt.Catalog)
	fmt.Fprintln(w, l10n.F("%d routes (expected %d)", enumerated, expected))
	if enumerated != expected {
		return errors.New(l10n.F("Route count mismatch: enumerated %d, expected %d", enumerated, expected))
	}

	probes := []probe.Probe{probe.Catalog(rt.Catalog)}
	if checkAssets {
		probes = append(probes, probe.ContentHost(rt.Client(), rt.Catalog, rt.Linker))
	}
	if err := preflight(c.Context, probes...); err != nil {
		return err
	}

	var missing, failed int
	if checkAssets {
		ttl := rt.Config.Assets.CacheTTL.Std()
		if n, err := rt.DB().PruneAssetChecks(ttl); err != nil {
			slog.Warn("Failed to prune asset checks", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned asset checks", "count", n)
		}

		checker := assetcheck.New(rt.Client(), rt.Store(), ttl, rt.Config.Assets.Concurrency)
		report, err := checker.Run(c.Context, rt.Catalog, rt.Linker, routes.Enumerate(rt.Catalog))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, l10n.F("Checked %d audio files: %d missing, %d failed", report.Checked, report.Missing, report.Failed))
		for _, r := range report.Results {
			if r.Missing() {
				fmt.Fprintln(w, l10n.F("Missing: %s", r.URL))
			}
		}
		missing, failed = report.Missing, report.Failed
	}

	if c.Bool("strict") {
		if missing+failed > 0 {
			return errors.New(l10n.F("%d audio files missing", missing+failed))
		}
		if len(warnings) > 0 {
			return errors.New(l10n.F("%d catalog warnings", len(warnings)))
		}
	}
	return nil
}

func runServe(c *cli.Context) error {
	rt, err := app.Open(c.String("config"), app.Options{Logging: true, Database: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	if c.Bool("build") {
		if err := build(c, rt, app.BuildOptions{}, false); err != nil {
			return err
		}
	}

	addr := c.String("addr")
	if addr == "" {
		addr = rt.Config.Server.Address
	}

	var svc *kiosk.Service
	if !c.Bool("no-player") {
		svc = rt.Kiosk()
		defer func() { _ = svc.Close() }()
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	srv, err := rt.Server(addr, svc, cancel)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return app.Serve(ctx, srv, ln)
}

func runPlay(c *cli.Context) error {
	if c.NArg() != 0 && c.NArg() != 3 {
		return errors.New(l10n.T("expected STORY PRIMARY SECONDARY"))
	}
	rt, err := app.Open(c.String("config"), app.Options{Logging: true, Database: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	svc := rt.Kiosk()
	defer func() { _ = svc.Close() }()

	r := routes.RouteParam{StoryName: c.Args().Get(0), Primary: c.Args().Get(1), Secondary: c.Args().Get(2)}
	if c.NArg() == 0 {
		last, ok := svc.LastRoute(c.Context)
		if !ok {
			return errors.New(l10n.T("No story to resume"))
		}
		r = last
		fmt.Fprintln(c.App.Writer, l10n.F("Resuming %s", r.Path()))
	}
	sess, err := svc.Open(c.Context, r)
	if err != nil {
		return err
	}
	return play(c.Context, c.App.Writer, sess)
}

func play(ctx context.Context, w io.Writer, sess *kiosk.Session) error {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := sess.Controller.Subscribe(func(st playback.State) {
		if !st.Playing && st.Duration > 0 && st.Position >= st.Duration {
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	fmt.Fprintln(w, l10n.F("Playing %s / %s", sess.Resolved.PrimaryTitle, sess.Resolved.SecondaryTitle))
	if err := sess.Controller.Play(); err != nil {
		return err
	}

	select {
	case <-done:
		fmt.Fprintln(w, l10n.T("Finished."))
	case <-ctx.Done():
		fmt.Fprintln(w, l10n.T("Stopped."))
	}
	return nil
}
