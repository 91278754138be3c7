package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gridcat/gridcat/internal/presentation"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the catalog database is reachable and migrated",
	Long: `Open the configured catalog database, run migrations if needed, and
report record counts as JSON. Useful as a smoke test after pointing gridcat
at a new or restored database.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type checkReport struct {
	DBPath           string `json:"db_path"`
	Dimensions       int    `json:"dimensions"`
	Domains          int    `json:"domains"`
	ReferenceSystems int    `json:"reference_systems"`
	DatasetTypes     int    `json:"dataset_types"`
	StorageTypes     int    `json:"storage_types"`
	Datasets         int64  `json:"datasets"`
	StorageUnits     int64  `json:"storage_units"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "~/.gridcat/catalog.db"
	}
	report := checkReport{DBPath: dbPath}

	dims, err := catalog.registry.ListDimensions()
	if err != nil {
		return err
	}
	report.Dimensions = len(dims)

	domains, err := catalog.registry.ListDomains()
	if err != nil {
		return err
	}
	report.Domains = len(domains)

	systems, err := catalog.registry.ListReferenceSystems()
	if err != nil {
		return err
	}
	report.ReferenceSystems = len(systems)

	datasetTypes, err := catalog.types.ListDatasetTypes()
	if err != nil {
		return err
	}
	report.DatasetTypes = len(datasetTypes)

	storageTypes, err := catalog.types.ListStorageTypes()
	if err != nil {
		return err
	}
	report.StorageTypes = len(storageTypes)

	conn := catalog.db.Connection()
	if err := conn.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&report.Datasets); err != nil {
		return err
	}
	if err := conn.QueryRow("SELECT COUNT(*) FROM storage_units WHERE version = 0").Scan(&report.StorageUnits); err != nil {
		return err
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(report)
}
