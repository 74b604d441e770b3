package rules

import (
	"context"
	_ "embed"
	"fmt"

	"leadscore_backend/platform/logger"

	"gopkg.in/yaml.v3"
)

//go:embed seed_rules.yaml
var seedRulesYAML []byte

type seedRule struct {
	EventType string `yaml:"event_type"`
	Points    int    `yaml:"points"`
	Active    *bool  `yaml:"active"`
}

type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

// ParseSeedRules decodes the embedded default rule set.
func ParseSeedRules() ([]CreateRuleParams, error) {
	var file seedFile
	if err := yaml.Unmarshal(seedRulesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse seed rules: %w", err)
	}

	params := make([]CreateRuleParams, 0, len(file.Rules))
	for _, rule := range file.Rules {
		if rule.EventType == "" {
			return nil, fmt.Errorf("seed rule with empty event_type")
		}
		active := true
		if rule.Active != nil {
			active = *rule.Active
		}
		params = append(params, CreateRuleParams{
			EventType: rule.EventType,
			Points:    rule.Points,
			Active:    active,
		})
	}
	return params, nil
}

// Seed inserts the default rules for event types that have none. Safe to run
// on every startup; operator edits are never overwritten.
func Seed(ctx context.Context, repo *Repository, log *logger.Logger) error {
	params, err := ParseSeedRules()
	if err != nil {
		return err
	}

	inserted := 0
	for _, p := range params {
		created, err := repo.EnsureRule(ctx, p)
		if err != nil {
			return fmt.Errorf("seed rule %q: %w", p.EventType, err)
		}
		if created {
			inserted++
		}
	}

	if inserted > 0 {
		log.Info("scoring rules seeded", "inserted", inserted)
	}
	return nil
}
