package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/presentation"
)

var (
	datasetsType      string
	datasetsDimension string
	datasetsMin       float64
	datasetsMax       float64
	datasetsLimit     int
)

var datasetsListCmd = &cobra.Command{
	Use:   "datasets:list",
	Short: "List registered datasets",
	Long: `List registered datasets as JSON, newest first.

Use --type to filter by dataset type and --dimension with --min/--max to
filter by coverage along one dimension.

Examples:
  # All datasets
  gridcat datasets:list

  # Scenes from January 2010 (seconds since epoch)
  gridcat datasets:list --type level1-scene \
    --dimension time --min 1262304000 --max 1264982400

  # The five most recent registrations
  gridcat datasets:list --limit 5 | jq '.[].guid'`,
	RunE: runDatasetsList,
}

func init() {
	datasetsListCmd.Flags().StringVarP(&datasetsType, "type", "t", "", "Filter by dataset type")
	datasetsListCmd.Flags().StringVarP(&datasetsDimension, "dimension", "d", "", "Dimension tag for range filtering")
	datasetsListCmd.Flags().Float64Var(&datasetsMin, "min", 0, "Range minimum (requires --dimension)")
	datasetsListCmd.Flags().Float64Var(&datasetsMax, "max", 0, "Range maximum (requires --dimension)")
	datasetsListCmd.Flags().IntVar(&datasetsLimit, "limit", 0, "Maximum number of records (0 = no limit)")
	rootCmd.AddCommand(datasetsListCmd)
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	if datasetsDimension != "" && datasetsMax < datasetsMin {
		return fmt.Errorf("--max must not be less than --min")
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	datasets, err := catalog.ingest.ListDatasets(domain.DatasetFilter{
		TypeName:     datasetsType,
		DimensionTag: datasetsDimension,
		Min:          datasetsMin,
		Max:          datasetsMax,
		Limit:        datasetsLimit,
	})
	if err != nil {
		return err
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(presentation.FromDatasets(datasets))
}
