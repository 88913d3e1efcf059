package reminder

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/julianstephens/pills/internal/models"
)

type memSink struct {
	pending   map[string]models.PendingReminder
	removeAll int
	cleared   int
	cancelled []string
	failClear error
}

func newMemSink() *memSink {
	return &memSink{pending: make(map[string]models.PendingReminder)}
}

func (s *memSink) SchedulePending(_ context.Context, rs []models.PendingReminder) error {
	for _, r := range rs {
		s.pending[r.Identifier] = r
	}
	return nil
}

func (s *memSink) CancelPending(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(s.pending, id)
		s.cancelled = append(s.cancelled, id)
	}
	return nil
}

func (s *memSink) RemoveAllPending(context.Context) error {
	if s.failClear != nil {
		return s.failClear
	}
	s.removeAll++
	s.pending = make(map[string]models.PendingReminder)
	return nil
}

func (s *memSink) RemoveScheduled(_ context.Context, after time.Time) error {
	if s.failClear != nil {
		return s.failClear
	}
	s.cleared++
	for id, r := range s.pending {
		if r.DeliveredAt != nil || r.FireAt.After(after) {
			delete(s.pending, id)
		}
	}
	return nil
}

func (s *memSink) GetPendingReminders(context.Context) ([]models.PendingReminder, error) {
	out := make([]models.PendingReminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

func (s *memSink) MarkReminderDelivered(_ context.Context, id string, at time.Time) error {
	r, ok := s.pending[id]
	if !ok {
		return errors.New("unknown reminder")
	}
	r.DeliveredAt = &at
	s.pending[id] = r
	return nil
}

type staticRecords struct {
	records []models.DoseRecord
	err     error
}

func (r *staticRecords) GetAllRecords() ([]models.DoseRecord, error) {
	return r.records, r.err
}

type fixedPermission struct {
	status models.PermissionStatus
}

func (p fixedPermission) Permission(context.Context) models.PermissionStatus { return p.status }

func (p fixedPermission) RequestPermission(context.Context) (bool, error) {
	return p.status.Allowed(), nil
}

type recordingDeliverer struct {
	sent []string
	fail error
}

func (d *recordingDeliverer) Name() string { return "test" }

func (d *recordingDeliverer) Deliver(_ context.Context, r models.PendingReminder) error {
	if d.fail != nil {
		return d.fail
	}
	d.sent = append(d.sent, r.Identifier)
	return nil
}
