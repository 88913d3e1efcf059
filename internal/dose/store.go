// Package dose holds the per-day dose records and the toggle rules that
// mutate them.
package dose

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/pills/internal/calendar"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

// Persister is the durable side of the record store. Records are only ever
// inserted or updated, never deleted.
type Persister interface {
	InsertRecord(models.DoseRecord) error
	UpdateRecord(models.DoseRecord) error
	GetAllRecords() ([]models.DoseRecord, error)
}

// ChangeKind describes how a record changed.
type ChangeKind int

const (
	ChangeInserted ChangeKind = iota
	ChangeUpdated
)

func (k ChangeKind) String() string {
	if k == ChangeInserted {
		return "inserted"
	}
	return "updated"
}

// Change is delivered to subscribers after a record was written.
type Change struct {
	Kind   ChangeKind
	Record models.DoseRecord
}

// Store keeps every dose record in memory keyed by calendar day and writes
// through to a Persister. Writes reach the Persister before memory, so a
// failed write leaves the in-memory view untouched.
type Store struct {
	mu          sync.RWMutex
	persister   Persister
	cal         calendar.Calendar
	records     map[string]models.DoseRecord
	loaded      bool
	subscribers map[int]func(Change)
	nextSubID   int
}

func NewStore(p Persister, cal calendar.Calendar) *Store {
	return &Store{
		persister:   p,
		cal:         cal,
		records:     make(map[string]models.DoseRecord),
		subscribers: make(map[int]func(Change)),
	}
}

// Calendar returns the calendar used to key records.
func (s *Store) Calendar() calendar.Calendar {
	return s.cal
}

// Load reads all records from the Persister, replacing the in-memory view.
func (s *Store) Load() error {
	recs, err := s.persister.GetAllRecords()
	if err != nil {
		return fmt.Errorf("failed to load dose records: %w", err)
	}

	byDay := make(map[string]models.DoseRecord, len(recs))
	for _, rec := range recs {
		// Persisted days are calendar dates; re-base them onto this calendar.
		day, err := s.cal.ParseDayKey(rec.Day.Format(constants.DateFormat))
		if err != nil {
			return fmt.Errorf("failed to load dose record %s: %w", rec.ID, err)
		}
		rec.Day = day
		byDay[s.cal.DayKey(day)] = rec
	}

	s.mu.Lock()
	s.records = byDay
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *Store) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Load()
}

// Get returns the record for the calendar day containing day.
func (s *Store) Get(day time.Time) (models.DoseRecord, bool, error) {
	if err := s.ensureLoaded(); err != nil {
		return models.DoseRecord{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[s.cal.DayKey(day)]
	return rec, ok, nil
}

// GetAllRecords returns every record ordered by day.
func (s *Store) GetAllRecords() ([]models.DoseRecord, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.DoseRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Day.Before(out[j].Day)
	})
	return out, nil
}

// Insert adds a record for a day that has none yet.
func (s *Store) Insert(rec models.DoseRecord) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	rec.Day = s.cal.StartOfDay(rec.Day)
	key := s.cal.DayKey(rec.Day)

	s.mu.RLock()
	_, exists := s.records[key]
	s.mu.RUnlock()
	if exists {
		return fmt.Errorf("dose record for %s already exists", key)
	}

	if err := s.persister.InsertRecord(rec); err != nil {
		return fmt.Errorf("failed to insert dose record for %s: %w", key, err)
	}

	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeInserted, Record: rec})
	return nil
}

// Update replaces the stored flags of an existing record.
func (s *Store) Update(rec models.DoseRecord) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	rec.Day = s.cal.StartOfDay(rec.Day)
	key := s.cal.DayKey(rec.Day)

	s.mu.RLock()
	_, exists := s.records[key]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("no dose record for %s", key)
	}

	rec.UpdatedAt = time.Now()
	if err := s.persister.UpdateRecord(rec); err != nil {
		return fmt.Errorf("failed to update dose record for %s: %w", key, err)
	}

	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeUpdated, Record: rec})
	return nil
}

// Subscribe registers fn to be called after every successful write.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(c Change) {
	s.mu.RLock()
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}
