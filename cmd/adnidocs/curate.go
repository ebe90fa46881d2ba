package main

import (
	"github.com/spf13/cobra"

	"github.com/kalambet/adnidocs/internal/catalog"
	"github.com/kalambet/adnidocs/internal/config"
	"github.com/kalambet/adnidocs/internal/curate"
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Organize crawled documents into the ADNI documentation hierarchy",
	Long: `Organize crawled documents into the ADNI documentation hierarchy.

Reads the raw crawl output, buckets each document by the static rule
table, and writes the curated catalog.

Examples:
  adnidocs curate
  adnidocs curate --input data/adni_raw.json --output adni_documents_curated.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		inputPath, _ := cmd.Flags().GetString("input")
		if inputPath == "" {
			inputPath = cfg.Crawl.RawOutputPath
		}
		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = cfg.Curate.OutputPath
		}

		raw, err := catalog.LoadRaw(inputPath)
		if err != nil {
			return err
		}
		printStep("Curating %d documents from %s...", len(raw.Documents), inputPath)

		curated, err := curate.New().Curate(raw.Documents)
		if err != nil {
			return err
		}

		if err := catalog.SaveCurated(outputPath, curated); err != nil {
			return err
		}

		printSuccess("Curated catalog saved to %s", outputPath)
		printBreakdown(curated)
		return nil
	},
}

func printBreakdown(curated *catalog.CuratedOutput) {
	for _, category := range curated.CategoryNames() {
		subs := curated.DocumentsByCategory[category]
		total := 0
		for _, docs := range subs {
			total += len(docs)
		}
		printStatus(category, "%d documents", total)
	}
	printStatus("Organized", "%d", curated.Metadata.OrganizedDocuments)
	printStatus("Uncategorized", "%d", curated.Uncategorized.Count)
	printStatus("Skipped", "%d", curated.Skipped.Count)
}

func init() {
	curateCmd.Flags().String("input", "", "raw crawl output path")
	curateCmd.Flags().String("output", "", "curated catalog output path")
}
