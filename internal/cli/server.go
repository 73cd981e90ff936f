package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dodecahedr0x/amm-tutorial/internal/config"
	"github.com/Dodecahedr0x/amm-tutorial/internal/core/state"
	"github.com/Dodecahedr0x/amm-tutorial/internal/rpc"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database/leveldb"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database/memory"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/database/pebble"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/history"
)

var (
	// Server flags
	port     int
	bindAddr string
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AMM daemon",
	Long: `Start the ammd server which provides:
- HTTP JSON-RPC API for transaction submission and queries
- WebSocket server for transaction and server subscriptions
- Health check endpoint

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	}

	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind to (overrides config)")
}

// openLedgerDB builds the configured key-value backend and returns the
// ledger database plus a shutdown hook.
func openLedgerDB(cfg *config.Config) (database.DB, func() error, error) {
	switch cfg.Storage.Backend {
	case "pebble":
		manager := pebble.NewManager(cfg.StoragePath(), cfg.Storage.BlockCacheBytes)
		db, err := manager.OpenDB("ledger")
		if err != nil {
			return nil, nil, err
		}
		return db, manager.Close, nil
	case "leveldb":
		manager := leveldb.NewManager(cfg.StoragePath())
		db, err := manager.OpenDB("ledger")
		if err != nil {
			return nil, nil, err
		}
		return db, manager.Close, nil
	case "memory":
		db := memory.NewDB()
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", database.ErrUnknownBackend, cfg.Storage.Backend)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		if path := cfg.GetConfigPath(); path != "" {
			log.Printf("Loaded configuration from %s", path)
		} else {
			log.Printf("Using default configuration")
		}
	}
	if port != 0 {
		cfg.RPC.Port = port
	}
	if bindAddr != "" {
		cfg.RPC.Host = bindAddr
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, closeDB, err := openLedgerDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	defer closeDB()

	store, err := state.NewStore(db, cfg.Storage.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to build state store: %w", err)
	}

	journal, err := history.Open(cfg.History.Driver, cfg.HistoryDSN())
	if err != nil {
		return fmt.Errorf("failed to open transaction journal: %w", err)
	}
	defer journal.Close()

	publisher := rpc.NewPublisher()
	node := rpc.NewNode(store, journal, publisher)
	httpServer := rpc.NewServer(node, 30*time.Second)
	wsServer := rpc.NewWebSocketServer(
		httpServer.Registry(),
		publisher,
		time.Duration(cfg.RPC.WSPingSeconds)*time.Second,
	)

	mux := http.NewServeMux()
	mux.Handle("/", httpServer)
	mux.Handle("/ws", wsServer)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"ammd"}`))
	})

	listenAddr := cfg.ListenAddr()
	if !quiet {
		fmt.Println("Starting ammd")
		fmt.Println("Server Configuration:")
		fmt.Printf("  - HTTP JSON-RPC: http://%s/\n", listenAddr)
		fmt.Printf("  - WebSocket:     ws://%s/ws\n", listenAddr)
		fmt.Printf("  - Health Check:  http://%s/health\n", listenAddr)
		fmt.Printf("  - Storage:       %s (%s)\n", cfg.Storage.Backend, cfg.StoragePath())
		fmt.Printf("  - History:       %s (%s)\n", cfg.History.Driver, cfg.HistoryDSN())
	}

	srv := &http.Server{Addr: listenAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		if !quiet {
			log.Println("Shutting down")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		wsServer.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
