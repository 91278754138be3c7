package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridcat/gridcat/internal/catalog/application"
	"github.com/gridcat/gridcat/internal/presentation"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dataset.yaml>...",
	Short: "Register datasets and fan them out into storage units",
	Long: `Register one or more datasets described by YAML descriptor documents.

For each dataset, every storage type derived from its dataset type is fanned
out: the dataset's extents are mapped to tile indices along each storage
dimension, and the touched storage units are created or extended. Registration
is idempotent by GUID; re-ingesting an unchanged descriptor is a no-op.

Examples:
  # Ingest a single scene
  gridcat ingest scenes/LS8_2010-01-01.yaml

  # Ingest a batch
  gridcat ingest scenes/*.yaml

  # Show the units a scene landed in with jq
  gridcat ingest scenes/LS8_2010-01-01.yaml | jq '.[].units'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var datasetRemoveCmd = &cobra.Command{
	Use:   "dataset:remove <guid>",
	Short: "Remove a dataset from the catalog",
	Long: `Remove a registered dataset by GUID.

Storage units the dataset contributed to keep their accumulated coverage;
only the dataset record and its associations are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetRemove,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(datasetRemoveCmd)
}

type ingestResult struct {
	File  string   `json:"file"`
	GUID  string   `json:"guid"`
	Type  string   `json:"type"`
	Units []string `json:"units"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	results := make([]ingestResult, 0, len(args))
	for _, path := range args {
		desc, err := application.LoadDatasetDescriptorFile(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		ds, err := desc.ToDataset()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if err := catalog.ingest.RegisterDataset(cmd.Context(), ds); err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		units, err := catalog.ingest.UnitsForDataset(ds.GUID)
		if err != nil {
			return fmt.Errorf("listing units for %s: %w", ds.GUID, err)
		}

		results = append(results, ingestResult{
			File:  path,
			GUID:  ds.GUID,
			Type:  ds.TypeName,
			Units: units,
		})
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(results)
}

func runDatasetRemove(cmd *cobra.Command, args []string) error {
	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	guid := args[0]
	if err := catalog.ingest.RemoveDataset(cmd.Context(), guid); err != nil {
		return fmt.Errorf("removing dataset %s: %w", guid, err)
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(map[string]string{
		"removed": guid,
	})
}
