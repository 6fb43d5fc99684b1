package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/skedule/plugin/ai/agent/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool catalogue offered to the model",
	// The catalogue is static; no config is needed.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeCatalogue(cmd.OutOrStdout())
	},
}

// catalogueEntry adds the decoded schema, which Tool keeps as raw JSON.
type catalogueEntry struct {
	tools.Tool `yaml:",inline"`
	Schema     map[string]any `yaml:"schema"`
}

func writeCatalogue(w io.Writer) error {
	catalogue := tools.Catalogue()
	entries := make([]catalogueEntry, 0, len(catalogue))
	for _, tool := range catalogue {
		entry := catalogueEntry{Tool: tool}
		// JSON is a subset of YAML.
		if err := yaml.Unmarshal(tool.Schema, &entry.Schema); err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}
