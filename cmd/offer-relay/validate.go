package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandilink/offer-relay/internal/config"
	"github.com/mandilink/offer-relay/internal/lexicon"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file and the crop lexicon",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	if defects := lexicon.Verify(lexicon.CropTable); len(defects) > 0 {
		for _, d := range defects {
			fmt.Printf("lexicon: %s\n", d)
		}
		return fmt.Errorf("lexicon has %d defect(s)", len(defects))
	}

	lex := lexicon.FromTable(lexicon.CropTable)
	fmt.Printf("configuration ok: %d categories routed, %d languages, %d source channels\n",
		len(cfg.Routing.Table), len(cfg.Routing.Languages), len(cfg.Routing.SourceChannels))
	fmt.Printf("lexicon ok: %d crops in %d categories\n",
		len(lex.StandardNames()), len(lex.Categories()))

	for _, category := range lex.Categories() {
		if _, ok := cfg.Routing.Table[category]; !ok {
			fmt.Printf("note: category %s has no routing entry, its offers will be dropped\n", category)
		}
	}
	return nil
}
