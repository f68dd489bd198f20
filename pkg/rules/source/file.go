package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"aoss-hq/sentinel/pkg/rules/ast"
	"aoss-hq/sentinel/pkg/rules/parser"
)

// Source loads a complete rule set from an external location.
type Source interface {
	// Load returns all rules from the source. The returned set is
	// complete: the store replaces its active rules with it.
	Load(ctx context.Context) ([]*ast.PolicyRule, error)
}

// FileSource loads rules from YAML files on disk.
type FileSource struct {
	path   string
	parser *parser.Parser
	logger *slog.Logger
}

// NewFileSource creates a new file-based rule source. The path can be
// either a single file or a directory; for a directory, all .yaml and
// .yml files are loaded.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		parser: parser.NewParser(),
		logger: logger.With("component", "rules.source.file"),
	}
}

// Load reads and parses all rule files under the configured path.
// Duplicate rule IDs across files are an error: two files silently
// defining the same constraint would make the audit trail ambiguous.
func (s *FileSource) Load(ctx context.Context) ([]*ast.PolicyRule, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat rule path %q: %w", s.path, err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk rule directory %q: %w", s.path, err)
		}
	} else {
		files = []string{s.path}
	}

	var all []*ast.PolicyRule
	seen := make(map[string]string)

	for _, path := range files {
		file, err := s.parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		for _, rule := range file.Rules {
			if prev, dup := seen[rule.ID]; dup {
				return nil, fmt.Errorf("rule %q defined in both %q and %q", rule.ID, prev, path)
			}
			seen[rule.ID] = path
			all = append(all, rule)
		}
	}

	s.logger.Info("loaded rules from files",
		"path", s.path,
		"file_count", len(files),
		"rule_count", len(all),
	)

	return all, nil
}
