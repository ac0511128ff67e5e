package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"QuantLab/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import TICKER FILE.csv",
	Short: "Load a Yahoo-layout CSV into the offline bar store",
	Long: `Import daily bars from a CSV with the columns
Date,Open,High,Low,Close,Adj Close,Volume into database.sqlite_path.
Existing bars for the same dates are replaced.

Set data_source.provider to "sqlite" to chart from the imported bars.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	s, err := store.Open(cfg.Database.SQLitePath)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.ImportCSV(cmd.Context(), args[0], f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d bars for %s into %s\n", n, args[0], cfg.Database.SQLitePath)

	syms, err := s.Symbols(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "symbols in store: %s\n", strings.Join(syms, ", "))
	return nil
}
