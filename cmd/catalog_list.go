package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gridcat/gridcat/internal/presentation"
)

var catalogListCmd = &cobra.Command{
	Use:   "catalog:list",
	Short: "List registered dimensions, domains, reference systems, and types",
	Long: `List the catalog's registry and type definitions as JSON.

Examples:
  # Everything
  gridcat catalog:list

  # Just the dimension tags
  gridcat catalog:list | jq '.dimensions[].tag'

  # Storage types derived from a dataset type
  gridcat catalog:list | jq '.dataset_types[] | select(.name=="level1-scene") | .storage_types'`,
	RunE: runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogListCmd)
}

type catalogListing struct {
	Dimensions       []presentation.DimensionDTO       `json:"dimensions"`
	Domains          []presentation.DomainDTO          `json:"domains"`
	ReferenceSystems []presentation.ReferenceSystemDTO `json:"reference_systems"`
	DatasetTypes     []presentation.DatasetTypeDTO     `json:"dataset_types"`
	StorageTypes     []presentation.StorageTypeDTO     `json:"storage_types"`
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	dims, err := catalog.registry.ListDimensions()
	if err != nil {
		return err
	}
	domains, err := catalog.registry.ListDomains()
	if err != nil {
		return err
	}
	systems, err := catalog.registry.ListReferenceSystems()
	if err != nil {
		return err
	}
	datasetTypes, err := catalog.types.ListDatasetTypes()
	if err != nil {
		return err
	}
	storageTypes, err := catalog.types.ListStorageTypes()
	if err != nil {
		return err
	}

	listing := catalogListing{
		Dimensions:       presentation.FromDimensions(dims),
		Domains:          presentation.FromDomainGroups(domains),
		ReferenceSystems: presentation.FromReferenceSystems(systems),
		StorageTypes:     presentation.FromStorageTypes(storageTypes),
	}
	for _, dt := range datasetTypes {
		derived, err := catalog.types.StorageTypesFor(dt.Name)
		if err != nil {
			return err
		}
		names := make([]string, len(derived))
		for i, st := range derived {
			names[i] = st.Name
		}
		listing.DatasetTypes = append(listing.DatasetTypes, presentation.FromDatasetType(dt, names))
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(listing)
}
