package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cq4kit/cq4diag/internal/cq4/frame"
	"github.com/cq4kit/cq4diag/internal/cq4/javaclass"
	"github.com/cq4kit/cq4diag/internal/cq4/pipeline"
	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

// printTailerMeta loads and prints the .cq4t file adjacent to path, if
// one exists.
func printTailerMeta(path string) {
	meta, err := pipeline.LoadTailerMeta(path)
	if err != nil {
		fmt.Printf("tailer: %v\n", err)
		return
	}
	if meta == nil {
		fmt.Println("tailer: none")
		return
	}
	fmt.Printf("tailer wireType: %s\n", meta.WireType)
	if meta.TypeHint != nil {
		fmt.Printf("tailer type: %s\n", *meta.TypeHint)
	}
}

// openQueue opens path as a .cq4 file, ready for scanning. Callers must
// Close it.
func openQueue(path string) (*frame.Reader, error) {
	r := frame.NewReader(path)
	if err := r.Open(); err != nil {
		return nil, err
	}
	return r, nil
}

var (
	schemaFiles []string
	schemaDir   string
	encodingStr string
	showTailer  bool
	showMeta    bool
	traceOn     bool
)

func registerCommonFlags(c *cobra.Command) {
	c.Flags().StringArrayVarP(&schemaFiles, "schema", "S", nil, "JSON schema file (repeatable)")
	c.Flags().StringVarP(&schemaDir, "schema-dir", "D", "", "directory of .java/.class files to extract a schema from")
	c.Flags().StringVarP(&encodingStr, "encoding", "E", "", "force secondary encoding: binary, thrift, or sbe")
	c.Flags().BoolVarP(&showTailer, "tailer", "T", false, "include the .cq4t tailer-metadata file")
	c.Flags().BoolVarP(&showMeta, "metadata", "m", false, "include metadata excerpts alongside data excerpts")
	c.Flags().BoolVar(&traceOn, "trace", false, "print per-excerpt diagnostics to stderr")
}

// tracer builds a pipeline.Tracer from the --trace flag.
func tracer() *pipeline.Tracer {
	if !traceOn {
		return nil
	}
	return pipeline.NewTracer(os.Stderr)
}

// loadSchema builds a Schema from --schema/--schema-dir flags, merging
// all sources (spec §4.E, §4.I). Returns nil, nil if none were given.
func loadSchema() (*schema.Schema, error) {
	var schemas []*schema.Schema

	for _, path := range schemaFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		s, err := schema.FromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		schemas = append(schemas, s)
	}

	if schemaDir != "" {
		reg, err := javaclass.ExtractDirectory(schemaDir)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, reg.Schema)
	}

	if len(schemas) == 0 {
		return nil, nil
	}

	merged := schema.Merge(schemas...)
	if encodingStr != "" {
		merged.Encoding = schema.Encoding(encodingStr)
	}
	return merged, nil
}
