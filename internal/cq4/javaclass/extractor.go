package javaclass

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cq4kit/cq4diag/internal/cq4/cq4err"
	"github.com/cq4kit/cq4diag/internal/cq4/schema"
)

// ClassRegistry is the result of walking a directory of .java/.class
// files: one merged schema plus a record of which source file
// contributed each message.
type ClassRegistry struct {
	Schema      *schema.Schema
	SourceFiles map[string]string // message name -> originating file path
}

// ExtractDirectory walks root for .java and .class files, parses each
// into a schema.MessageDef, and merges the results (spec §4.I). Returns
// cq4err.NoSchema if the walk produces nothing usable.
func ExtractDirectory(root string) (*ClassRegistry, error) {
	reg := &ClassRegistry{SourceFiles: make(map[string]string)}
	var schemas []*schema.Schema
	var encodingHint schema.Encoding = schema.EncodingBinary
	sawHint := false

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".java"):
			s, enc, ok, ferr := extractJavaSourceFile(path)
			if ferr != nil {
				return fmt.Errorf("%s: %w", path, ferr)
			}
			if !ok {
				return nil
			}
			if !sawHint {
				encodingHint, sawHint = enc, true
			}
			schemas = append(schemas, s)
			for name := range s.Messages {
				reg.SourceFiles[name] = path
			}
		case strings.HasSuffix(path, ".class"):
			s, ok, ferr := extractClassFile(path)
			if ferr != nil {
				return fmt.Errorf("%s: %w", path, ferr)
			}
			if !ok {
				return nil
			}
			schemas = append(schemas, s)
			for name := range s.Messages {
				reg.SourceFiles[name] = path
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, cq4err.NoSchema
	}

	merged := schema.Merge(schemas...)
	merged.Encoding = encodingHint
	reg.Schema = merged
	return reg, nil
}

// extractJavaSourceFile parses one .java file into a single-schema
// wrapper carrying every class body found (outer plus inner classes).
func extractJavaSourceFile(path string) (*schema.Schema, schema.Encoding, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", false, err
	}
	src := string(data)
	outerName := strings.TrimSuffix(filepath.Base(path), ".java")

	defs := ExtractSource(src, outerName)
	if len(defs) == 0 {
		return nil, "", false, nil
	}
	ids := ExtractThriftFieldIDs(src)
	enc := DetectEncoding(src)

	s := &schema.Schema{Messages: make(map[string]schema.MessageDef, len(defs)), Encoding: enc}
	for _, def := range defs {
		md := def.ToMessageDef(ids)
		if len(md.Fields) == 0 {
			continue
		}
		s.Messages[md.Name] = md
		if md.HasObjectField() || s.DefaultMessage == "" {
			s.DefaultMessage = md.Name
		}
	}
	if len(s.Messages) == 0 {
		return nil, "", false, nil
	}
	return s, enc, true, nil
}

// extractClassFile parses one compiled .class file into a single-message
// schema. Thrift field IDs aren't recoverable from bytecode alone, so
// fields keep their declaration-order default assignment.
func extractClassFile(path string) (*schema.Schema, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	name, fields, err := ParseClassFile(data)
	if err != nil {
		return nil, false, err
	}
	md := ClassFileMessageDef(name, fields, nil)
	if len(md.Fields) == 0 {
		return nil, false, nil
	}
	s := &schema.Schema{
		Messages:       map[string]schema.MessageDef{md.Name: md},
		DefaultMessage: md.Name,
		Encoding:       schema.EncodingBinary,
	}
	return s, true, nil
}
