package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/frugalops/frugal/config"
	"github.com/frugalops/frugal/engine"
	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/telemetry"
	"github.com/frugalops/frugal/types"
)

var (
	version    = "0.1.0"
	configPath string
	debugLog   bool

	rootCmd = &cobra.Command{
		Use:   "frugal",
		Short: "Cloud waste detection and remediation",
		Long: `Frugal - Cloud Cost Optimization Engine

Frugal scans your cloud accounts for wasted spend, turns findings into
deduplicated recommendations, and can apply them (stop, delete,
right-size) with a rollback window. It also watches budgets and flags
cost anomalies.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Frugal {{.Version}} - Cloud Cost Optimization Engine
`)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "frugal.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}

// app bundles everything a command needs: the loaded configuration,
// the opened store and journal, and an engine wired on top of them.
type app struct {
	cfg     *config.Config
	store   *store.Store
	journal *journal.Journal
	engine  *engine.Engine
}

// newApp loads the config file and opens the local state. Callers must
// Close() it.
func newApp() (*app, error) {
	level := zerolog.InfoLevel
	if debugLog {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	jrnl, err := journal.Open(cfg.StorageDir)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	eng, err := engine.New(engine.Options{
		Store:       st,
		Journal:     jrnl,
		Credentials: configResolver{providers: cfg.Providers},
		Notifier:    logNotifier{},
		Thresholds:  cfg.Thresholds,
	})
	if err != nil {
		_ = jrnl.Close()
		_ = st.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: st, journal: jrnl, engine: eng}, nil
}

func (a *app) Close() {
	_ = a.journal.Close()
	_ = a.store.Close()
}

// configResolver maps workspace+provider to the accounts in the config
// file. Cloud credentials come from the ambient SDK chains (env vars,
// shared config, IMDS), never from frugal.yaml.
type configResolver struct {
	providers []config.ProviderConfig
}

func (r configResolver) Resolve(_ context.Context, _ string, provider types.Provider) (providers.Config, bool, error) {
	for _, pc := range r.providers {
		if pc.Name != provider {
			continue
		}
		cfg := providers.Config{
			AccountID: pc.AccountID,
			Region:    pc.Region,
		}
		if provider == types.ProviderAzure {
			cfg.SubscriptionID = pc.AccountID
		}
		return cfg, true, nil
	}
	return providers.Config{}, false, nil
}

// logNotifier surfaces budget alerts on the console. Deployments that
// want webhooks or email swap this for a real notifier.
type logNotifier struct{}

func (logNotifier) Notify(ctx context.Context, event string, payload map[string]any) error {
	log := telemetry.NewLogger("notify")
	log.WithContext(ctx).Warn().Str("event", event).Fields(payload).Msg("budget alert")
	return nil
}
