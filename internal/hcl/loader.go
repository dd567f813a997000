package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/trackertools/internal/config"
	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/fsutil"
	"github.com/vk/trackertools/internal/schema"
)

// FileExtension is the extension of catalog files.
const FileExtension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL catalog loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every catalog file found under paths, in order, and merges
// them into one model. Fields keep the order they were declared in across
// files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, FileExtension)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no %s files found in %v", FileExtension, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	var sectionsRange *hcl.Range
	declared := make(map[string]hcl.Range)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Sections != nil {
			if sectionsRange != nil {
				return nil, nil, fmt.Errorf("%s: sections already declared at %s", root.Sections.Range, sectionsRange)
			}
			r := root.Sections.Range
			sectionsRange = &r
			if diags := gohcl.DecodeExpression(root.Sections.Expr, nil, &model.Sections); diags.HasErrors() {
				return nil, nil, fmt.Errorf("failed to decode sections in %s: %w", file, diags)
			}
		}

		for _, f := range root.Fields {
			if prev, dup := declared[f.ID]; dup {
				return nil, nil, fmt.Errorf("%s: field %q already declared at %s", f.DeclRange, f.ID, prev)
			}
			spec, err := l.translateField(f)
			if err != nil {
				return nil, nil, err
			}
			declared[f.ID] = f.DeclRange
			model.Fields = append(model.Fields, spec)
		}
		logger.Debug("Loaded HCL file.", "file", file, "fields", len(root.Fields))
	}

	for _, f := range model.Fields {
		if len(model.Sections) > 0 && f.Section >= len(model.Sections) {
			return nil, nil, fmt.Errorf("%s: field %q: section %d is out of range (%d sections)", f.DeclRange, f.ID, f.Section, len(model.Sections))
		}
	}

	logger.Debug("HCL loading complete.", "sections", len(model.Sections), "fields", len(model.Fields))
	return model, NewConverter(), nil
}
