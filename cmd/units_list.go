package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/presentation"
)

var (
	unitsType      string
	unitsDimension string
	unitsMin       float64
	unitsMax       float64
)

var unitsListCmd = &cobra.Command{
	Use:   "units:list",
	Short: "List storage units of a storage type",
	Long: `List the storage units of one storage type as JSON, ordered by tile key.

With --dimension and --min/--max, only units whose coverage along that
dimension touches the given range are returned.

Examples:
  # Every unit of a storage type
  gridcat units:list --type tiled-annual

  # Units covering part of 2010 on the time axis
  gridcat units:list --type tiled-annual \
    --dimension time --min 1262304000 --max 1293840000

  # Tile keys only
  gridcat units:list --type tiled-annual | jq '.[].tile_key'`,
	RunE: runUnitsList,
}

func init() {
	unitsListCmd.Flags().StringVarP(&unitsType, "type", "t", "", "Storage type name (required)")
	unitsListCmd.Flags().StringVarP(&unitsDimension, "dimension", "d", "", "Dimension tag for range filtering")
	unitsListCmd.Flags().Float64Var(&unitsMin, "min", 0, "Range minimum (requires --dimension)")
	unitsListCmd.Flags().Float64Var(&unitsMax, "max", 0, "Range maximum (requires --dimension)")
	_ = unitsListCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(unitsListCmd)
}

func runUnitsList(cmd *cobra.Command, args []string) error {
	if unitsDimension != "" && unitsMax < unitsMin {
		return fmt.Errorf("--max must not be less than --min")
	}

	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	units, err := listUnits(catalog)
	if err != nil {
		return err
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(presentation.FromStorageUnits(units))
}

func listUnits(catalog *catalogContext) ([]*domain.StorageUnit, error) {
	if unitsDimension != "" {
		return catalog.ingest.StorageUnitsInRange(unitsType, unitsDimension, unitsMin, unitsMax)
	}
	return catalog.ingest.StorageUnits(unitsType)
}
