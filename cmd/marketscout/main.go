package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
	"github.com/marketscout/marketscout/internal/agent/telemetry"
	"github.com/marketscout/marketscout/internal/server"
	"github.com/marketscout/marketscout/internal/store"
	"github.com/marketscout/marketscout/internal/tools"
	"github.com/marketscout/marketscout/provider"
)

var (
	configPath string
	debugFlag  bool
)

func main() {
	root := &cobra.Command{
		Use:   "marketscout",
		Short: "Market research and intelligence agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "demo",
			Short: "Run the agent against the built-in demo query",
			RunE:  func(cmd *cobra.Command, args []string) error { return runDemo() },
		},
		&cobra.Command{
			Use:   "research [query]",
			Short: "Run a single research query and print the report",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "chat",
			Short: "Interactive loop: read queries, print reports, until 'exit'",
			RunE:  func(cmd *cobra.Command, args []string) error { return runChat() },
		},
		&cobra.Command{
			Use:   "tools",
			Short: "List registered operations",
			RunE:  func(cmd *cobra.Command, args []string) error { return runTools() },
		},
		&cobra.Command{
			Use:   "info",
			Short: "Print agent identity and configuration summary",
			RunE:  func(cmd *cobra.Command, args []string) error { return runInfo() },
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API server",
			RunE:  func(cmd *cobra.Command, args []string) error { return runServe() },
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Periodically re-run the configured research query",
			RunE:  func(cmd *cobra.Command, args []string) error { return runWatch() },
		},
		migrateCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg       *config.Config
	orch      *core.Orchestrator
	registry  *core.Registry
	store     store.ResultStore
	telemetry *telemetry.Telemetry
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debugFlag {
		cfg.General.Debug = true
	}

	tel := telemetry.NewTelemetry(cfg.Telemetry.Enabled, cfg.Telemetry.PeriodicLogs, nil)

	entries := tools.Entries(cfg.Email, nil)
	if secret := cfg.Capability.SigningSecret; secret != "" {
		for i := range entries {
			if err := core.SignDescriptor(&entries[i].Descriptor, secret); err != nil {
				return nil, fmt.Errorf("signing descriptor %s: %w", entries[i].Descriptor.Name, err)
			}
		}
	}
	registry, err := core.NewRegistry(entries, cfg.Capability.SigningSecret, cfg.Capability.RequiredOperations)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	planner, err := buildPlanner(cfg, registry)
	if err != nil {
		return nil, err
	}

	executor := core.NewExecutor(registry, tel, cfg.Agent.OperationTimeout, nil)
	orch := core.NewOrchestrator(planner, executor, tel, st, cfg.Agent.Name, cfg.Agent.MaxConcurrentRuns, nil)

	return &app{cfg: cfg, orch: orch, registry: registry, store: st, telemetry: tel}, nil
}

// buildPlanner selects the planner variant by configuration. A model
// backend that cannot be initialized aborts startup.
func buildPlanner(cfg *config.Config, registry *core.Registry) (core.Planner, error) {
	if cfg.Agent.Planner != "llm" {
		return core.NewRulePlanner(nil), nil
	}
	name := cfg.LLM.Routing.Planning
	pcfg, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil, fmt.Errorf("planner backend %q is not configured under llm.providers", name)
	}
	prov, err := provider.NewProvider(name, pcfg)
	if err != nil {
		return nil, fmt.Errorf("initializing planner backend: %w", err)
	}
	return core.NewLLMPlanner(prov, registry, nil), nil
}

func (a *app) close() {
	a.telemetry.Stop()
	if err := a.store.Close(); err != nil {
		log.Printf("closing store: %v", err)
	}
}

func runDemo() error {
	fmt.Println("\nInitializing Market Research Agent...")
	fmt.Printf("\nResearch Query: %s\n\n", config.DefaultResearchQuery)
	return runOnce(config.DefaultResearchQuery)
}

func runOnce(query string) error {
	ctx := context.Background()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	run, err := a.orch.Research(ctx, query, "cli")
	if err != nil {
		return err
	}
	fmt.Println(run.Response)
	return nil
}

func runChat() error {
	ctx := context.Background()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("\nWelcome to %s\n%s\n", a.cfg.Agent.Name, a.cfg.Agent.Description)
	fmt.Println("\nType your research requests or 'exit' to quit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYour research request: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(query, "exit") {
			fmt.Println("\nThank you for using the Market Research Agent!")
			break
		}
		if query == "" {
			fmt.Println("Please enter a research request")
			continue
		}
		run, err := a.orch.Research(ctx, query, "cli")
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Println("\n" + run.Response)
	}
	return scanner.Err()
}

func runTools() error {
	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Available operations:\n\n")
	for _, name := range a.registry.List() {
		desc, err := a.registry.Describe(name)
		if err != nil {
			continue
		}
		fmt.Printf("  %s (v%s)\n    %s\n\n", desc.Name, desc.Version, desc.Description)
	}
	return nil
}

func runInfo() error {
	a, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Agent:       %s\n", a.cfg.Agent.Name)
	fmt.Printf("Description: %s\n", a.cfg.Agent.Description)
	fmt.Printf("Planner:     %s\n", plannerName(a.cfg))
	fmt.Printf("Storage:     %s\n", storageName(a.cfg))
	fmt.Printf("Operations:  %d registered\n", len(a.registry.List()))
	return nil
}

func plannerName(cfg *config.Config) string {
	if cfg.Agent.Planner == "llm" {
		return "model-backed (" + cfg.LLM.Routing.Planning + ")"
	}
	return "rule-based"
}

func storageName(cfg *config.Config) string {
	if cfg.Storage.Backend == "" {
		return "memory"
	}
	return cfg.Storage.Backend
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(a.cfg, a.orch, a.registry, a.store, a.telemetry, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(a.cfg.Server.Address) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runWatch() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	locker := watchLocker(a.store)
	watcher, err := server.NewWatcher(a.cfg.Watch, a.orch, locker, nil)
	if err != nil {
		return err
	}
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// watchLocker reuses the redis connection for the watch lock when the
// store happens to be redis-backed.
func watchLocker(st store.ResultStore) *redis.Client {
	if rs, ok := st.(*store.RedisStore); ok {
		return rs.Client()
	}
	return nil
}

func migrateCommand() *cobra.Command {
	var steps int
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			dsn := cfg.Storage.Postgres.DSN()
			if env := os.Getenv("MARKETSCOUT_STORAGE_POSTGRES_URL"); env != "" {
				dsn = env
			}
			return store.RunMigrations(dsn, dir, steps, nil)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply (negative rolls back, 0 = all)")
	cmd.Flags().StringVar(&dir, "dir", "internal/store/migrations", "migrations directory")
	return cmd
}
