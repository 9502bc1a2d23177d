package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis/nudge/internal/config"
	"github.com/hollis/nudge/internal/engine"
	"github.com/hollis/nudge/internal/llm"
	"github.com/hollis/nudge/internal/schedule"
	"github.com/hollis/nudge/internal/server"
	"github.com/hollis/nudge/internal/store"
	"github.com/hollis/nudge/internal/suggest"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Check for ANTHROPIC_API_KEY env override
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	limiter := engine.NewLimiter(db, cfg.Engine.QuotaTotal, cfg.Engine.QuotaWindow())
	eng := engine.New(db, db, db, limiter, cfg.Engine.TTL())

	// Wire per-module suggestion producers. The organizer app keeps a
	// state snapshot per module next to the database.
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), generation disabled\n", err)
	} else {
		snapshotDir := filepath.Join(filepath.Dir(dbPath), "snapshots")
		producers := make([]suggest.Producer, 0, len(cfg.Engine.Modules))
		for _, module := range cfg.Engine.Modules {
			source := suggest.NewFileSource(filepath.Join(snapshotDir, module+".txt"))
			producers = append(producers, suggest.NewLLMProducer(module, llmClient, source))
		}
		eng.SetProducers(producers)
		fmt.Fprintf(os.Stderr, "  llm: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "  modules: %v\n", cfg.Engine.Modules)
	}

	// Periodic maintenance: quota window refresh and low-pool replenish.
	sched := schedule.New()
	_, err = sched.Every(cfg.Engine.TickInterval(), func() {
		now := time.Now()
		if _, err := limiter.RefreshIfDue(now); err != nil {
			log.Printf("quota refresh check: %v", err)
		}
		if n, err := eng.MaybeAutoReplenish(context.Background(), now, cfg.Engine.ReplenishFloor); err != nil {
			log.Printf("auto-replenish: %v", err)
		} else if n > 0 {
			log.Printf("auto-replenish: created %d suggestions", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(db, eng, VersionString(), cfg.Engine.ReplenishFloor)
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "nudge serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
