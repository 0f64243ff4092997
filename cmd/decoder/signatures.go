package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lendingScope/internal/catalog"
	"lendingScope/internal/config"
	"lendingScope/internal/events"
)

func runSignatures(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSignatures(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cat, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return err
	}
	idx, err := events.BuildIndex(cat.Schemas)
	if err != nil {
		return err
	}
	logger.Debug("signatures built", zap.Int("kinds", idx.Len()))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"EVENT", "SIGNATURE", "TOPIC0"})
	table.SetAutoWrapText(false)
	for _, e := range idx.Entries() {
		table.Append([]string{e.Kind, e.Signature, e.Hash.Hex()})
	}
	table.Render()
	return nil
}
