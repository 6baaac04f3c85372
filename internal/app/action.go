package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"scrollguard/internal/config"
	"scrollguard/internal/daemon"
	"scrollguard/internal/database"
	"scrollguard/internal/eventlog"
	"scrollguard/internal/notify"
	"scrollguard/internal/reporter"
	"scrollguard/internal/sites"
	"scrollguard/internal/tracker"
	"scrollguard/internal/web"
	"scrollguard/pkg/detector"
)

// envDaemonChild marks the forked child so it runs the daemon loop instead
// of forking again.
const envDaemonChild = "SCROLLGUARD_DAEMON_CHILD"

func loadConfig() (*config.Config, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, err
	}

	return config.Load(paths)
}

func newLogger(path string) zerolog.Logger {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	return zerolog.New(out).With().Timestamp().Logger()
}

func startAction(ctx *cli.Context) error {
	return launchDaemon(false)
}

func serveAction(ctx *cli.Context) error {
	return launchDaemon(true)
}

func launchDaemon(withWeb bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.System.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("checking daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	if os.Getenv(envDaemonChild) != "1" {
		return daemonize(cfg, withWeb)
	}

	return runDaemon(cfg, dm, withWeb)
}

// daemonize forks the current binary into a new session with the child
// marker set, then reports where to find it.
func daemonize(cfg *config.Config, withWeb bool) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	env := append(os.Environ(), envDaemonChild+"=1")

	process, err := os.StartProcess(exe, os.Args, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil},
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	})
	if err != nil {
		return fmt.Errorf("starting daemon process: %w", err)
	}

	pterm.Success.Printfln("Daemon started (PID: %d)", process.Pid)
	if withWeb {
		pterm.Info.Printfln("Web API: http://%s:%d", cfg.Web.Host, cfg.Web.Port)
	}
	pterm.Info.Printfln("Logs: %s", cfg.System.LogPath)

	return nil
}

func runDaemon(cfg *config.Config, dm *daemon.Daemon, withWeb bool) error {
	logger := newLogger(cfg.System.LogPath)

	db, err := database.Connect(cfg.System.DBPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		logger.Error().Err(err).Msg("failed to initialize database")
		return err
	}

	det, err := detector.New()
	if err != nil {
		logger.Error().Err(err).Msg("no window detector available")
		return err
	}
	defer det.Close()

	logger.Info().Str("display_server", det.GetDisplayServer()).Msg("window detector initialized")

	events, err := eventlog.New(cfg.System.EventLogDir)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open event log")
		return err
	}

	if err := dm.WritePID(); err != nil {
		logger.Error().Err(err).Msg("failed to write PID file")
		return err
	}
	defer dm.RemovePID()

	repo := database.NewRepository(db)
	notifier := notify.New()
	svc := tracker.NewService(cfg, det, repo, events, notifier, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info().Msg("received shutdown signal")
		svc.Stop()
	}()

	var webServer *web.Server

	if withWeb {
		webServer = web.NewServer(cfg, repo, svc, logger)

		go func() {
			if err := webServer.Start(); err != nil {
				logger.Error().Err(err).Msg("web server error")
				svc.Stop()
			}
		}()

		logger.Info().Str("addr", webServer.Address()).Msg("web API available")
	}

	if cfg.Notify.Enabled {
		notifier.Startup()
	}

	err = svc.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("tracker error")
		return err
	}

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := webServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error shutting down web server")
		}
	}

	logger.Info().Msg("daemon stopped")

	return nil
}

func stopAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.System.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("checking daemon status: %w", err)
	}

	if !running {
		pterm.Info.Println("Daemon is not running")
		return nil
	}

	pterm.Info.Printfln("Stopping daemon (PID: %d)...", pid)

	if err := dm.Stop(); err != nil {
		return fmt.Errorf("stopping daemon: %w", err)
	}

	pterm.Success.Println("Daemon stopped")

	return nil
}

func statusAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.System.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("checking daemon status: %w", err)
	}

	if running {
		pterm.Success.Printfln("Status: running (PID: %d)", pid)
		pterm.Info.Printfln("Poll interval: %v", cfg.Tracker.PollInterval)
		pterm.Info.Printfln("Database: %s", cfg.System.DBPath)
	} else {
		pterm.Warning.Println("Status: not running")
	}

	// Probe the current window even when the daemon is down; it shows
	// whether detection works at all on this system.
	det, err := detector.New()
	if err != nil {
		pterm.Warning.Printfln("Could not detect current window: %v", err)
		return nil
	}
	defer det.Close()

	info, err := det.GetFocusedWindow()
	if err != nil || info == nil {
		pterm.Warning.Println("No focused window detected")
		return nil
	}

	pterm.Info.Printfln("Focused window: %s (%s, %s)", info.Title, info.AppName, info.DisplayServer)

	siteIDs := make([]string, 0, len(cfg.Sites))
	for site := range cfg.Sites {
		siteIDs = append(siteIDs, site)
	}

	if site, ok := sites.NewMatcher(siteIDs).Match(info.Title); ok {
		limits := cfg.Sites[site]
		pterm.Warning.Printfln("Tracked site in focus: %s (daily limit: %d min)", site, limits.DailyLimit)
	}

	return nil
}

func summaryAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.System.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	records, err := repo.GetSessionsSince(midnight)
	if err != nil {
		return fmt.Errorf("loading today's sessions: %w", err)
	}

	totals := make(map[string]time.Duration, len(records))
	for _, rec := range records {
		totals[rec.Site] += time.Duration(rec.DurationSeconds) * time.Second
	}

	summary := tracker.BuildSummary(now, totals, cfg)

	pterm.DefaultSection.Printfln("Screen time for %s", summary.Date)

	if len(summary.Sites) == 0 {
		pterm.Success.Println("No time tracked today")
		return nil
	}

	data := pterm.TableData{{"Site", "Minutes", "Limit", "Used"}}

	for _, site := range summary.Sites {
		used := fmt.Sprintf("%.0f%%", site.Percentage)
		if site.OverLimit {
			used += " (over limit)"
		}

		data = append(data, []string{
			site.Site,
			fmt.Sprintf("%.1f", site.Minutes),
			fmt.Sprintf("%d", site.LimitMinutes),
			used,
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func reportAction(ctx *cli.Context) error {
	periodType := ctx.Args().First()
	if periodType == "" {
		periodType = "day"
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.System.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rep := reporter.New(cfg, database.NewRepository(db))

	report, err := rep.GenerateReport(periodType)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		out, err := rep.FormatReportJSON(report)
		if err != nil {
			return err
		}

		fmt.Println(out)

		return nil
	}

	fmt.Println(rep.FormatReportText(report))

	return nil
}

func clearAction(ctx *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !ctx.Bool("yes") {
		confirmed, err := pterm.DefaultInteractiveConfirm.
			Show("This will delete all tracking data. Are you sure?")
		if err != nil {
			return err
		}

		if !confirmed {
			pterm.Info.Println("Operation cancelled")
			return nil
		}
	}

	db, err := database.Connect(cfg.System.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.NewRepository(db).Clear(); err != nil {
		return fmt.Errorf("clearing database: %w", err)
	}

	pterm.Success.Println("All tracking data deleted")

	return nil
}
