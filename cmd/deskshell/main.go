// deskshell - the command console of a simulated desktop shell.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jeranaias/deskshell/internal/config"
	"github.com/jeranaias/deskshell/internal/console"
	"github.com/jeranaias/deskshell/internal/engine"
	"github.com/jeranaias/deskshell/internal/logging"
	"github.com/jeranaias/deskshell/internal/output"
	"github.com/jeranaias/deskshell/internal/permissions"
	"github.com/jeranaias/deskshell/internal/storage"
)

// Version information (set at build time)
var (
	Version   = engine.DefaultVersion
	GitCommit = "unknown"
)

func main() {
	configFlag := pflag.String("config", "", "Path to config.toml (default ~/.deskshell/config.toml)")
	commandFlag := pflag.StringP("command", "c", "", "Execute a single command and exit")
	dbFlag := pflag.String("db", "", "Audit database path (\":memory:\" for an ephemeral store)")
	sessionFlag := pflag.String("session", "", "Session id (default: a new random id)")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: deskshell [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Starts the interactive console, or runs one command with -c.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}
	if *versionFlag {
		fmt.Printf("deskshell %s (%s)\n", Version, GitCommit)
		return
	}

	os.Exit(run(*configFlag, *dbFlag, *sessionFlag, *commandFlag))
}

func run(configPath, dbPath, sessionID, command string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deskshell: %v\n", err)
		return 2
	}
	if dbPath == ":memory:" {
		cfg.Storage.InMemory = true
	} else if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	if _, err := logging.Initialize(logging.Config{
		Enabled:    cfg.Logging.Enabled,
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "deskshell: %v\n", err)
		return 2
	}
	defer logging.Close()

	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deskshell: %v\n", err)
		return 2
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	oracle := newReloadableOracle(cfg)
	if configPath == "" {
		configPath, _ = config.DefaultPath()
	}
	if configPath != "" {
		go func() {
			if err := config.Watch(ctx, configPath, oracle.reload); err != nil {
				logging.WarningLog.Printf("CONFIG_WATCH_FAILED | path=%s err=%v", configPath, err)
			}
		}()
	}

	eng := engine.New(
		engine.WithStore(store),
		engine.WithOracle(oracle),
		engine.WithPlatformVersion(cfg.Platform.Version),
		engine.WithVersion(Version),
		engine.WithOutputManager(output.NewManager(output.Policy{
			PreviewLength:     cfg.Output.PreviewLength,
			CompressThreshold: cfg.Output.CompressThreshold,
			MaxStoredLength:   cfg.Output.MaxStoredLength,
		})),
	)
	if err := eng.LoadStats(ctx); err != nil {
		logging.WarningLog.Printf("STATS_LOAD_FAILED | err=%v", err)
	}

	opts := console.Options{
		Prompt:      cfg.Console.Prompt,
		HistoryFile: cfg.Console.HistoryFile,
		Color:       cfg.Console.Color,
		SessionID:   sessionID,
	}

	if command != "" {
		if !console.RunOnce(ctx, eng, command, opts) {
			return 1
		}
		return 0
	}

	if err := console.Run(ctx, eng, opts); err != nil {
		fmt.Fprintf(os.Stderr, "deskshell: %v\n", err)
		return 1
	}
	return 0
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.InMemory {
		return storage.NewMemory(), nil
	}
	return storage.Open(cfg.Storage.Path)
}

// =============================================================================
// PERMISSION HOT-RELOAD
// =============================================================================

// reloadableOracle answers from the config's grants and follows edits to
// the config file.
type reloadableOracle struct {
	grants   *permissions.GrantSet
	allowAll atomic.Bool
}

func newReloadableOracle(cfg *config.Config) *reloadableOracle {
	o := &reloadableOracle{grants: permissions.NewDefaultGrantSet(cfg.Permissions.Granted)}
	o.allowAll.Store(cfg.Permissions.AllowAll)
	return o
}

func (o *reloadableOracle) IsGranted(ctx context.Context, permission string) bool {
	if o.allowAll.Load() {
		return true
	}
	return o.grants.IsGranted(ctx, permission)
}

func (o *reloadableOracle) reload(cfg *config.Config) {
	o.grants.Replace(cfg.Permissions.Granted)
	o.allowAll.Store(cfg.Permissions.AllowAll)
	logging.InfoLog.Printf("PERMISSIONS_RELOADED | granted=%d allow_all=%t",
		len(cfg.Permissions.Granted), cfg.Permissions.AllowAll)
}
