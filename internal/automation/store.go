package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"taskmate/internal/localstore"
)

// RulesKey is the well-known key holding the serialized rule list.
const RulesKey = "automationRules"

// Store keeps the rule list as one JSON array under RulesKey. Every operation
// reads and writes the whole list.
type Store struct {
	storage localstore.Storage
	log     zerolog.Logger
}

func NewStore(storage localstore.Storage, log zerolog.Logger) *Store {
	return &Store{storage: storage, log: log}
}

// ListRules returns the rules in insertion order. Unparsable content yields an
// empty set.
func (s *Store) ListRules(ctx context.Context) ([]Rule, error) {
	data, err := s.storage.Get(ctx, RulesKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		s.log.Warn().Err(err).Msg("automation rules unreadable, treating as empty")
		return nil, nil
	}
	return rules, nil
}

// SaveRule inserts rule, or replaces the rule with the same id in place.
func (s *Store) SaveRule(ctx context.Context, rule Rule) error {
	rules, err := s.ListRules(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range rules {
		if rules[i].ID == rule.ID {
			rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		rules = append(rules, rule)
	}

	return s.write(ctx, rules)
}

// TouchRule records that rule id materialized at the given time. It re-reads
// the list and reports false, writing nothing, when the rule no longer exists.
// Other fields keep whatever value is stored now.
func (s *Store) TouchRule(ctx context.Context, id string, at time.Time) (bool, error) {
	rules, err := s.ListRules(ctx)
	if err != nil {
		return false, err
	}

	for i := range rules {
		if rules[i].ID == id {
			rules[i].LastMaterializedAt = at
			return true, s.write(ctx, rules)
		}
	}
	return false, nil
}

// RemoveRule deletes the rule with id; a missing id is a no-op.
func (s *Store) RemoveRule(ctx context.Context, id string) error {
	rules, err := s.ListRules(ctx)
	if err != nil {
		return err
	}

	kept := rules[:0]
	for _, r := range rules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(rules) {
		return nil
	}

	return s.write(ctx, kept)
}

// ClearAll deletes every rule.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.storage.Delete(ctx, RulesKey); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, rules []Rule) error {
	if rules == nil {
		rules = []Rule{}
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := s.storage.Set(ctx, RulesKey, data); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	return nil
}
