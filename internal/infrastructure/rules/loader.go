// Package rules loads the ordered keyword table used by the classifier.
package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docsort/internal/core/domain"
)

// Loader reads rules from a YAML or XLSX file. Without a path it serves the
// built-in table.
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: strings.TrimSpace(path)}
}

type ruleFile struct {
	Rules []domain.ClassificationRule `yaml:"rules"`
}

func (l *Loader) LoadRules(_ context.Context) ([]domain.ClassificationRule, error) {
	if l.path == "" {
		return domain.DefaultRules(), nil
	}

	var (
		raw []domain.ClassificationRule
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".yaml", ".yml":
		raw, err = loadYAML(l.path)
	case ".xlsx":
		raw, err = loadXLSX(l.path)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "load rules", fmt.Errorf("unsupported rules file type %q", ext))
	}
	if err != nil {
		return nil, err
	}

	rules := domain.NormalizeRules(raw)
	if len(rules) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load rules", fmt.Errorf("%s holds no usable rules", l.path))
	}
	return rules, nil
}

func loadYAML(path string) ([]domain.ClassificationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse rules yaml", err)
	}
	return file.Rules, nil
}

// loadXLSX reads the first sheet: column A holds the keyword, column B the
// category label. A leading "keyword" header row is skipped.
func loadXLSX(path string) ([]domain.ClassificationRule, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open rules workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read rules workbook", errors.New("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rules sheet: %w", err)
	}

	out := make([]domain.ClassificationRule, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "keyword") {
			continue
		}
		out = append(out, domain.ClassificationRule{Keyword: row[0], CategoryLabel: row[1]})
	}
	return out, nil
}
