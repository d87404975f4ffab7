package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/formats"
)

var (
	bankDomainsFile string
	bankStatsJSON   bool
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect and convert item bank files",
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a bank file for malformed or conflicting items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := loadBank(cmd.Context(), args[0], bankDomainsFile)
		if err != nil {
			return err
		}
		snap := b.Snapshot()
		cmd.Printf("ok: %d items in %d domains\n", snap.Len(), len(snap.DomainNames()))
		return nil
	},
}

var bankStatsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Show item counts per domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := loadBank(cmd.Context(), args[0], bankDomainsFile)
		if err != nil {
			return err
		}
		snap := b.Snapshot()
		stats := snap.Stats()
		if bankStatsJSON {
			data, err := json.MarshalIndent(map[string]any{"total": snap.Len(), "domains": stats}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal stats: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}
		cmd.Printf("Total Items: %d\n", snap.Len())
		for _, d := range snap.DomainNames() {
			sc, _ := snap.Scale(d)
			cmd.Printf("- %s: %d items (scale %s)\n", d, stats[d], sc)
		}
		return nil
	},
}

var bankConvertCmd = &cobra.Command{
	Use:   "convert [in] [out]",
	Short: "Rewrite a bank file in another format",
	Long: `Reads a bank file, validates it and writes it back out. The output
format is chosen by the extension of [out] (.json, .yaml, .yml, .toml).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !formats.Supported(args[1]) {
			return fmt.Errorf("unsupported output format: %s", args[1])
		}
		b, bf, err := loadBank(cmd.Context(), args[0], bankDomainsFile)
		if err != nil {
			return err
		}
		out := formats.FromItems(b.Snapshot().Items(), bf.Domains)
		if err := formats.WriteFile(args[1], out); err != nil {
			return err
		}
		cmd.Printf("wrote %d items to %s\n", len(out.Items), args[1])
		return nil
	},
}

func init() {
	bankCmd.PersistentFlags().StringVar(&bankDomainsFile, "domains", "", "domain threshold file")
	bankStatsCmd.Flags().BoolVar(&bankStatsJSON, "json", false, "output stats as JSON")
	bankCmd.AddCommand(bankValidateCmd, bankStatsCmd, bankConvertCmd)
	rootCmd.AddCommand(bankCmd)
}

// loadBank decodes a bank file into a fresh in-memory bank. Domains come
// from domainsPath when set, otherwise from the bank file itself.
func loadBank(ctx context.Context, path, domainsPath string) (*bank.Bank, formats.BankFile, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	bf, err := formats.ReadFile(path)
	if err != nil {
		return nil, formats.BankFile{}, err
	}
	if domainsPath != "" {
		df, err := formats.ReadFile(domainsPath)
		if err != nil {
			return nil, formats.BankFile{}, err
		}
		bf.Domains = df.Domains
	}
	items, err := bf.ItemList()
	if err != nil {
		return nil, formats.BankFile{}, err
	}
	b, err := bank.New(bf.Domains)
	if err != nil {
		return nil, formats.BankFile{}, err
	}
	if err := b.Add(ctx, items...); err != nil {
		return nil, formats.BankFile{}, err
	}
	return b, bf, nil
}
