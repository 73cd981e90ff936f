package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dodecahedr0x/amm-tutorial/internal/core/state"
	"github.com/Dodecahedr0x/amm-tutorial/internal/storage/compression"
)

// exportCmd streams every ledger entry into a compressed snapshot
// file.
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the ledger state to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
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

	comp, err := compression.ForName(cfg.Snapshot.Compression)
	if err != nil {
		return err
	}

	out, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer out.Close()

	writer, err := compression.NewSnapshotWriter(out, comp)
	if err != nil {
		return err
	}

	var count int
	var writeErr error
	err = store.Snapshot(cmd.Context(), func(key [32]byte, data []byte) bool {
		if writeErr = writer.WriteRecord(key, data); writeErr != nil {
			return false
		}
		count++
		return true
	})
	if err != nil {
		return fmt.Errorf("failed to walk ledger state: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write snapshot record: %w", writeErr)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("Exported %d ledger entries to %s (%s)\n", count, args[0], comp.Name())
	}
	return nil
}
