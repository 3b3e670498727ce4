package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/faticalabs/xmledit/complete"
)

var (
	catalogPath string
	schemaPaths []string
	defaultNS   string
	filePath    string
	offset      int
	char        string
	asJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "xmlcomplete",
	Short: "Schema-aware completion for a position in an XML document",
	Long: `xmlcomplete reads an XML document and prints the completions a
schema-aware editor would offer at the given offset, after the given
trigger character ('<', ' ', '=', '"', or any value character).`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML schema catalog")
	rootCmd.Flags().StringSliceVar(&schemaPaths, "schema", nil, "XSD schema file (repeatable)")
	rootCmd.Flags().StringVar(&defaultNS, "default", "", "default namespace for unqualified names")
	rootCmd.Flags().StringVar(&filePath, "file", "", "XML document ('-' for stdin)")
	rootCmd.Flags().IntVar(&offset, "offset", -1, "caret offset (default: end of document)")
	rootCmd.Flags().StringVar(&char, "char", "<", "trigger character")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "emit completions as JSON")
	rootCmd.MarkFlagRequired("file")
}

func run(cmd *cobra.Command, args []string) error {
	schemas, err := loadSchemas()
	if err != nil {
		return err
	}

	text, err := readDocument(filePath)
	if err != nil {
		return err
	}

	at := offset
	if at < 0 || at > len(text) {
		at = len(text)
	}
	if len(char) != 1 {
		return errors.Errorf("--char must be a single character, got %q", char)
	}

	completer := complete.NewCompleter(schemas)
	items := completer.Complete(text, at, char[0])
	return printItems(cmd, items)
}

func loadSchemas() (*complete.Collection, error) {
	switch {
	case catalogPath != "" && len(schemaPaths) > 0:
		return nil, errors.New("--catalog and --schema are mutually exclusive")
	case catalogPath != "":
		return complete.LoadCatalog(catalogPath)
	case len(schemaPaths) > 0:
		return complete.LoadSchemas(schemaPaths, defaultNS)
	}
	return nil, errors.New("one of --catalog or --schema is required")
}

func readDocument(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "reading stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "reading document")
	}
	return string(data), nil
}

func printItems(cmd *cobra.Command, items []complete.Item) error {
	if asJSON {
		type jsonItem struct {
			Text        string `json:"text"`
			Kind        string `json:"kind"`
			Description string `json:"description,omitempty"`
			Mandatory   bool   `json:"mandatory,omitempty"`
		}
		out := make([]jsonItem, len(items))
		for i, it := range items {
			out[i] = jsonItem{
				Text:        it.Text,
				Kind:        it.Kind.String(),
				Description: it.Description,
				Mandatory:   it.Mandatory,
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, it := range items {
		line := fmt.Sprintf("%-15s %s", it.Kind, it.Text)
		if it.Mandatory {
			line += " (required)"
		}
		if it.Description != "" {
			line += "  " + it.Description
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
