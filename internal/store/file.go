package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"openhours/internal/domain"
	"openhours/internal/hours"
)

var _ hours.RuleSource = (*FileSource)(nil)

// RuleFile is the YAML layout of a rules file:
//
//	timezone: Europe/Berlin
//	rules:
//	  - valid_from: "2014-04-29 22:00:00 +0000"
//	    valid_to: "2014-07-07 21:59:59 +0000"
//	    start: "14:00"
//	    end: "20:00"
//	    weekdays: [MONDAY, TUESDAY]
type RuleFile struct {
	Timezone string            `yaml:"timezone"`
	Rules    []domain.RuleSpec `yaml:"rules"`
}

// FileSource reads rules from a YAML file on every call.
type FileSource struct {
	Path string
	// Location interprets offset-less bounds when the file names no
	// timezone.
	Location *time.Location
}

// NewFileSource creates a FileSource.
func NewFileSource(path string, loc *time.Location) *FileSource {
	return &FileSource{Path: path, Location: loc}
}

// Rules loads and parses the file.
func (f *FileSource) Rules(context.Context) ([]domain.Rule, error) {
	return LoadRuleFile(f.Path, f.Location)
}

// LoadRuleFile parses a YAML rules file.
func LoadRuleFile(path string, loc *time.Location) ([]domain.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	if file.Timezone != "" {
		if loc, err = time.LoadLocation(file.Timezone); err != nil {
			return nil, fmt.Errorf("rules file %s: timezone: %w", path, err)
		}
	}
	rules, err := domain.ParseRules(file.Rules, loc)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// WriteRuleFile writes rules as YAML.
func WriteRuleFile(path string, rules []domain.Rule) error {
	file := RuleFile{Rules: make([]domain.RuleSpec, 0, len(rules))}
	for _, r := range rules {
		file.Rules = append(file.Rules, domain.SpecOf(r))
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
