package measurements

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"measurement-extractor/core/config"
	"measurement-extractor/core/reconcile"

	"gopkg.in/yaml.v3"
)

// StdinPath is the document path that reads from standard input.
const StdinPath = "-"

// Document is a parsed extraction document.
type Document struct {
	// Chart is the record stream location: a local path or s3://bucket/key.
	Chart string
	// Output optionally overrides the derived output path.
	Output string
	// Items are the measurements to extract, in document order.
	Items *reconcile.Items
}

type rawDocument struct {
	Chart  string    `yaml:"chart"`
	Output string    `yaml:"output"`
	Items  yaml.Node `yaml:"items_of_interest"`
}

// LoadDocument parses an extraction document.
//
//	chart: mimic-iii-clinical-database-1.4/CHARTEVENTS.csv.gz
//	items_of_interest:
//	  '226707': ['Height', 'HEIGHT', 'same']
func LoadDocument(r io.Reader) (*Document, error) {
	var raw rawDocument
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, configErrorf("document is empty")
		}
		return nil, &ConfigError{Reason: "malformed yaml", Err: err}
	}

	chart := strings.TrimSpace(raw.Chart)
	if chart == "" {
		return nil, configErrorf("chart is required")
	}

	items, err := parseItems(&raw.Items)
	if err != nil {
		return nil, err
	}

	return &Document{
		Chart:  chart,
		Output: strings.TrimSpace(raw.Output),
		Items:  items,
	}, nil
}

// LoadDocumentFile reads a document from path, or from stdin when path is "-".
func LoadDocumentFile(path string, stdin io.Reader) (*Document, error) {
	if path == StdinPath {
		return LoadDocument(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("cannot open %s", path), Err: err}
	}
	defer f.Close()

	return LoadDocument(f)
}

// parseItems walks the mapping node directly so document order is kept.
func parseItems(node *yaml.Node) (*reconcile.Items, error) {
	if node.Kind == 0 {
		return nil, configErrorf("items_of_interest is required")
	}
	if node.Kind != yaml.MappingNode {
		return nil, configErrorf("items_of_interest must be a mapping of item id to [label, header, policy]")
	}
	if len(node.Content) == 0 {
		return nil, configErrorf("items_of_interest is empty")
	}

	list := make([]reconcile.Item, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || strings.TrimSpace(key.Value) == "" {
			return nil, configErrorf("line %d: item id must be a non-empty scalar", key.Line)
		}
		id := strings.TrimSpace(key.Value)

		if value.Kind != yaml.SequenceNode || len(value.Content) != 3 {
			return nil, configErrorf("item %s: expected [label, header, policy]", id)
		}
		fields := make([]string, 3)
		for j, n := range value.Content {
			if n.Kind != yaml.ScalarNode {
				return nil, configErrorf("item %s: field %d must be a string", id, j+1)
			}
			fields[j] = strings.TrimSpace(n.Value)
		}

		policy, err := reconcile.ParsePolicy(fields[2])
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("item %s", id), Err: err}
		}
		list = append(list, reconcile.Item{ID: id, Label: fields[0], Header: fields[1], Policy: policy})
	}

	items, err := reconcile.NewItems(list...)
	if err != nil {
		return nil, &ConfigError{Reason: "items_of_interest", Err: err}
	}
	return items, nil
}

// OutputOptions select how the output destination is derived.
type OutputOptions struct {
	// Output is an explicit destination. It wins over everything else.
	Output string
	// Debug redirects output to the configured debug file.
	Debug bool
	// MaxRows prefixes the derived file name when positive.
	MaxRows int
	// RunDir places debug and derived files in this subdirectory of the data directory.
	RunDir string
}

// OutputPath resolves where the output table is written.
func (d *Document) OutputPath(cfg config.ExtractConfig, opts OutputOptions) string {
	switch {
	case opts.Output != "":
		return opts.Output
	case opts.Debug:
		return filepath.Join(cfg.DataDir, opts.RunDir, cfg.DebugName)
	case d.Output != "":
		return d.Output
	}

	name := strings.Join(d.Items.Headers(), ".") + ".csv.gz"
	if opts.MaxRows > 0 {
		name = fmt.Sprintf("%d_%s", opts.MaxRows, name)
	}
	return filepath.Join(cfg.DataDir, opts.RunDir, name)
}
