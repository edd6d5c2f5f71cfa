package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Storage keys. Each key maps to one JSON file in the data directory;
// there is no schema versioning, files are rewritten whole on every change.
const (
	keyAlerts = "tradepal_alerts"
	keyPlans  = "tradepal_plans"
	keyGoals  = "tradepal_goals"
)

// ErrNotFound is returned when an entity id does not exist.
var ErrNotFound = errors.New("store: not found")

// Store holds the CRUD entities in memory and mirrors every change to
// disk. A missing file on open means an empty collection.
type Store struct {
	mu     sync.RWMutex
	dir    string
	logger zerolog.Logger

	alerts []PriceAlert
	plans  []SavingPlan
	goals  []Goal
}

// Open loads all collections from dir, creating it if needed.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:    dir,
		logger: logger.With().Str("component", "store").Logger(),
	}
	if err := load(s.path(keyAlerts), &s.alerts); err != nil {
		return nil, err
	}
	if err := load(s.path(keyPlans), &s.plans); err != nil {
		return nil, err
	}
	if err := load(s.path(keyGoals), &s.goals); err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int("alerts", len(s.alerts)).
		Int("plans", len(s.plans)).
		Int("goals", len(s.goals)).
		Msg("store loaded")
	return s, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func load(path string, target any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// saveLocked rewrites one key's file. Caller holds mu.
func (s *Store) saveLocked(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Alerts returns a copy of all price alerts.
func (s *Store) Alerts() []PriceAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PriceAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// CreateAlert assigns an id and timestamp and persists the alert.
func (s *Store) CreateAlert(a PriceAlert) (PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.Executed = false
	s.alerts = append(s.alerts, a)
	return a, s.saveLocked(keyAlerts, s.alerts)
}

// UpdateAlert replaces the alert with the same id.
func (s *Store) UpdateAlert(a PriceAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == a.ID {
			a.CreatedAt = s.alerts[i].CreatedAt
			s.alerts[i] = a
			return s.saveLocked(keyAlerts, s.alerts)
		}
	}
	return ErrNotFound
}

// DeleteAlert removes an alert by id.
func (s *Store) DeleteAlert(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			return s.saveLocked(keyAlerts, s.alerts)
		}
	}
	return ErrNotFound
}

// ExecuteAlert flips the executed flag, simulating the trade the alert
// was armed for. Executing twice is not an error.
func (s *Store) ExecuteAlert(id string) (PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Executed = true
			return s.alerts[i], s.saveLocked(keyAlerts, s.alerts)
		}
	}
	return PriceAlert{}, ErrNotFound
}

// Plans returns a copy of all saving plans.
func (s *Store) Plans() []SavingPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SavingPlan, len(s.plans))
	copy(out, s.plans)
	return out
}

// CreatePlan assigns an id and timestamp and persists the plan.
func (s *Store) CreatePlan(p SavingPlan) (SavingPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	s.plans = append(s.plans, p)
	return p, s.saveLocked(keyPlans, s.plans)
}

// UpdatePlan replaces the plan with the same id.
func (s *Store) UpdatePlan(p SavingPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.plans {
		if s.plans[i].ID == p.ID {
			p.CreatedAt = s.plans[i].CreatedAt
			s.plans[i] = p
			return s.saveLocked(keyPlans, s.plans)
		}
	}
	return ErrNotFound
}

// DeletePlan removes a plan by id.
func (s *Store) DeletePlan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.plans {
		if s.plans[i].ID == id {
			s.plans = append(s.plans[:i], s.plans[i+1:]...)
			return s.saveLocked(keyPlans, s.plans)
		}
	}
	return ErrNotFound
}

// Goals returns a copy of all goals.
func (s *Store) Goals() []Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// CreateGoal assigns an id and timestamp and persists the goal.
func (s *Store) CreateGoal(g Goal) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now()
	s.goals = append(s.goals, g)
	return g, s.saveLocked(keyGoals, s.goals)
}

// UpdateGoal replaces the goal with the same id.
func (s *Store) UpdateGoal(g Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			g.CreatedAt = s.goals[i].CreatedAt
			s.goals[i] = g
			return s.saveLocked(keyGoals, s.goals)
		}
	}
	return ErrNotFound
}

// DeleteGoal removes a goal by id.
func (s *Store) DeleteGoal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return s.saveLocked(keyGoals, s.goals)
		}
	}
	return ErrNotFound
}
