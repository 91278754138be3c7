package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridcat/gridcat/internal/catalog/application"
	"github.com/gridcat/gridcat/internal/config"
	"github.com/gridcat/gridcat/internal/presentation"
)

var applySave bool

var applyCmd = &cobra.Command{
	Use:   "apply <definitions.yaml>...",
	Short: "Apply catalog definition documents",
	Long: `Apply one or more YAML definition documents to the catalog.

A definition document declares dimensions, domains, reference systems,
dataset types, and storage types. Applying is idempotent: re-applying an
unchanged document is a no-op, while a document that redefines an existing
entity differently is rejected.

Examples:
  # Apply a definition document
  gridcat apply definitions/core.yaml

  # Apply several in order
  gridcat apply definitions/core.yaml definitions/landsat.yaml

  # Apply and remember the document in the config for future runs
  gridcat apply --save definitions/landsat.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applySave, "save", false,
		"add the applied documents to definition_files in the config")
	rootCmd.AddCommand(applyCmd)
}

type applyResult struct {
	File          string `json:"file"`
	Dimensions    int    `json:"dimensions"`
	Domains       int    `json:"domains"`
	RefSystems    int    `json:"reference_systems"`
	DatasetTypes  int    `json:"dataset_types"`
	StorageTypes  int    `json:"storage_types"`
	SavedToConfig bool   `json:"saved_to_config,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	catalog, err := openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close(cmd)

	results := make([]applyResult, 0, len(args))
	for _, path := range args {
		defs, err := application.LoadDefinitionsFile(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		if err := defs.Apply(cmd.Context(), catalog.registry, catalog.types); err != nil {
			return fmt.Errorf("applying %s: %w", path, err)
		}

		result := applyResult{
			File:         path,
			Dimensions:   len(defs.Dimensions),
			Domains:      len(defs.Domains),
			RefSystems:   len(defs.ReferenceSystems),
			DatasetTypes: len(defs.DatasetTypes),
			StorageTypes: len(defs.StorageTypes),
		}

		if applySave {
			if err := saveDefinitionFile(path); err != nil {
				return err
			}
			result.SavedToConfig = true
		}

		results = append(results, result)
	}

	return presentation.NewFormatter(os.Stdout).FormatJSON(results)
}

func saveDefinitionFile(path string) error {
	configPath := configFilePath()
	if err := config.AddDefinitionFile(configPath, path, cfg.DefinitionFiles); err != nil {
		return fmt.Errorf("saving %s to %s: %w", path, configPath, err)
	}
	cfg.DefinitionFiles = appendUnique(cfg.DefinitionFiles, path)
	return nil
}

func appendUnique(files []string, file string) []string {
	for _, f := range files {
		if f == file {
			return files
		}
	}
	return append(files, file)
}
