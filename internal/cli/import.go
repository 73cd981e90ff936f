package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/state"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/compression"
)

// importCmd restores ledger entries from a snapshot file into the
// configured backend.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import ledger state from a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer in.Close()

	reader, err := compression.NewSnapshotReader(in)
	if err != nil {
		return err
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
		return err
	}

	var count int
	for {
		key, data, err := reader.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read snapshot record: %w", err)
		}
		if err := store.Restore(cmd.Context(), key, data); err != nil {
			return fmt.Errorf("failed to restore ledger entry: %w", err)
		}
		count++
	}

	if !quiet {
		fmt.Printf("Imported %d ledger entries from %s\n", count, args[0])
	}
	return nil
}
