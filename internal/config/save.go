// Package config provides configuration types, defaults, and persistence for gridcat.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveDefinitionFiles updates the definition_files list in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveDefinitionFiles(configPath string, files []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	// Parse into yaml.Node to preserve comments
	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	filesNode := buildDefinitionFilesNode(files)

	if doc.Kind == 0 {
		// Empty or new file - create document structure
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: "definition_files"},
						filesNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			// Find and replace the key, or append it
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == "definition_files" {
					root.Content[i+1] = filesNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: "definition_files"},
					filesNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomically(configPath, buf.Bytes())
}

// AddDefinitionFile appends a definition document to the config and saves.
// Adding a path that is already listed is a no-op.
func AddDefinitionFile(configPath, file string, existing []string) error {
	for _, f := range existing {
		if f == file {
			return nil
		}
	}
	return SaveDefinitionFiles(configPath, append(existing, file))
}

// RemoveDefinitionFile removes a definition document from the config and saves.
func RemoveDefinitionFile(configPath, file string, existing []string) error {
	updated := make([]string, 0, len(existing))
	found := false
	for _, f := range existing {
		if f == file {
			found = true
			continue
		}
		updated = append(updated, f)
	}
	if !found {
		return fmt.Errorf("definition file %q is not listed in the config", file)
	}
	return SaveDefinitionFiles(configPath, updated)
}

// buildDefinitionFilesNode creates a yaml.Node representing the file list.
func buildDefinitionFilesNode(files []string) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(files)),
	}
	for _, f := range files {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f})
	}
	return node
}

// writeAtomically writes to a temp file in the same directory, then renames.
func writeAtomically(configPath string, data []byte) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".gridcat.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
