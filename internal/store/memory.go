package store

import (
	"sync"
	"time"

	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// Store is the registry surface the analytics engine operates on. All state
// lives for the process lifetime only; nothing is persisted or reloaded.
type Store interface {
	SetRule(clientID string, rule models.RebalancingRule) error
	Rule(clientID string) (models.RebalancingRule, bool)

	AppendTaxEvent(clientID string, event models.TaxEvent) error
	TaxEvents(clientID string) []models.TaxEvent

	SaveAlert(alert models.PriceAlert) error
	Alert(id string) (models.PriceAlert, bool)
	Alerts() []models.PriceAlert
	ActiveAlerts() []models.PriceAlert
	MarkAlertTriggered(id string, at time.Time) bool
	DeactivateAlert(id string) bool
}

// MemoryStore keeps the three registries (rules, tax ledgers, alerts) in
// process memory. Registry maps are guarded by a read-write mutex each, and
// per-client writes additionally serialize through a ClientLocker so two
// requests for the same client cannot interleave.
type MemoryStore struct {
	rulesMu sync.RWMutex
	rules   map[string]models.RebalancingRule

	ledgerMu sync.RWMutex
	ledgers  map[string][]models.TaxEvent

	alertsMu sync.RWMutex
	alerts   map[string]*models.PriceAlert

	locker *ClientLocker
}

// NewMemoryStore creates empty registries.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:   make(map[string]models.RebalancingRule),
		ledgers: make(map[string][]models.TaxEvent),
		alerts:  make(map[string]*models.PriceAlert),
		locker:  NewClientLocker(),
	}
}

// SetRule stores or overwrites the rebalancing rule for a client.
func (s *MemoryStore) SetRule(clientID string, rule models.RebalancingRule) error {
	s.locker.Lock(clientID)
	defer s.locker.Unlock(clientID)

	s.rulesMu.Lock()
	s.rules[clientID] = rule
	s.rulesMu.Unlock()
	return nil
}

// Rule returns the stored rule for a client, if any.
func (s *MemoryStore) Rule(clientID string) (models.RebalancingRule, bool) {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	rule, ok := s.rules[clientID]
	return rule, ok
}

// AppendTaxEvent appends an event to the client's ledger, creating the
// ledger on first use. Events are never mutated or deleted afterward.
func (s *MemoryStore) AppendTaxEvent(clientID string, event models.TaxEvent) error {
	s.locker.Lock(clientID)
	defer s.locker.Unlock(clientID)

	s.ledgerMu.Lock()
	s.ledgers[clientID] = append(s.ledgers[clientID], event)
	s.ledgerMu.Unlock()
	return nil
}

// TaxEvents returns a copy of the client's ledger in insertion order.
func (s *MemoryStore) TaxEvents(clientID string) []models.TaxEvent {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	ledger := s.ledgers[clientID]
	out := make([]models.TaxEvent, len(ledger))
	copy(out, ledger)
	return out
}

// SaveAlert stores a new alert keyed by its id.
func (s *MemoryStore) SaveAlert(alert models.PriceAlert) error {
	s.alertsMu.Lock()
	defer s.alertsMu.Unlock()
	s.alerts[alert.ID] = &alert
	return nil
}

// Alert returns a copy of the alert with the given id.
func (s *MemoryStore) Alert(id string) (models.PriceAlert, bool) {
	s.alertsMu.RLock()
	defer s.alertsMu.RUnlock()
	alert, ok := s.alerts[id]
	if !ok {
		return models.PriceAlert{}, false
	}
	return *alert, true
}

// Alerts returns copies of every alert, fired or not.
func (s *MemoryStore) Alerts() []models.PriceAlert {
	s.alertsMu.RLock()
	defer s.alertsMu.RUnlock()

	out := make([]models.PriceAlert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		out = append(out, *alert)
	}
	return out
}

// ActiveAlerts returns copies of the alerts that have not fired or been
// deactivated.
func (s *MemoryStore) ActiveAlerts() []models.PriceAlert {
	s.alertsMu.RLock()
	defer s.alertsMu.RUnlock()

	out := make([]models.PriceAlert, 0)
	for _, alert := range s.alerts {
		if alert.Active {
			out = append(out, *alert)
		}
	}
	return out
}

// MarkAlertTriggered flips an active alert to fired. The check and the write
// happen under one lock, so concurrent evaluations cannot fire the same
// alert twice; exactly one caller gets true.
func (s *MemoryStore) MarkAlertTriggered(id string, at time.Time) bool {
	s.alertsMu.Lock()
	defer s.alertsMu.Unlock()

	alert, ok := s.alerts[id]
	if !ok || !alert.Active {
		return false
	}
	alert.Active = false
	alert.TriggeredAt = &at
	return true
}

// DeactivateAlert sets an alert inactive and reports whether it existed.
// Calling it on a fired or already-inactive alert is a no-op.
func (s *MemoryStore) DeactivateAlert(id string) bool {
	s.alertsMu.Lock()
	defer s.alertsMu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return false
	}
	alert.Active = false
	return true
}
