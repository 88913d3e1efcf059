package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/pills/internal/models"
)

func seedWeek(t *testing.T, sink *memSink) {
	t.Helper()
	s := NewScheduler(sink, &staticRecords{}, nil, fixedClock(dayStart), cal)
	_, err := s.Reschedule(context.Background(), defaultCfg)
	require.NoError(t, err)
}

func TestPresenterShouldPresent(t *testing.T) {
	now := dayStart.Add(7 * time.Hour)
	taken := &staticRecords{records: []models.DoseRecord{{Day: dayStart, MorningTaken: true}}}

	assert.False(t, NewPresenter(taken, fixedClock(now), cal).ShouldPresent(context.Background(), "morning-2026-02-10"))
	assert.True(t, NewPresenter(taken, fixedClock(now), cal).ShouldPresent(context.Background(), "evening-2026-02-10"))
	assert.True(t, NewPresenter(&staticRecords{}, fixedClock(now), cal).ShouldPresent(context.Background(), "morning-2026-02-10"))
}

func TestPresenterSuppressesOnReadFailure(t *testing.T) {
	failing := &staticRecords{err: errors.New("io error")}
	p := NewPresenter(failing, fixedClock(dayStart), cal)
	assert.False(t, p.ShouldPresent(context.Background(), "morning-2026-02-10"))
}

func TestFireDueDeliversOnlyDue(t *testing.T) {
	sink := newMemSink()
	seedWeek(t, sink)
	now := dayStart.Add(8 * time.Hour)
	deliverer := &recordingDeliverer{}
	records := &staticRecords{}

	d := NewDispatcher(sink, NewPresenter(records, fixedClock(now), cal), deliverer, fixedClock(now), cal)
	report, err := d.FireDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"morning-2026-02-10"}, report.Delivered)
	assert.Equal(t, []string{"morning-2026-02-10"}, deliverer.sent)
	assert.NotNil(t, sink.pending["morning-2026-02-10"].DeliveredAt)
	assert.Nil(t, sink.pending["evening-2026-02-10"].DeliveredAt)

	// a second pass does not resend
	report, err = d.FireDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Delivered)
	assert.Len(t, deliverer.sent, 1)
}

func TestFireDueSuppressesTakenDose(t *testing.T) {
	sink := newMemSink()
	seedWeek(t, sink)
	now := dayStart.Add(7*time.Hour + time.Minute)
	records := &staticRecords{records: []models.DoseRecord{{Day: dayStart, MorningTaken: true}}}
	deliverer := &recordingDeliverer{}

	d := NewDispatcher(sink, NewPresenter(records, fixedClock(now), cal), deliverer, fixedClock(now), cal)
	report, err := d.FireDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"morning-2026-02-10"}, report.Suppressed)
	assert.Empty(t, deliverer.sent)
	assert.NotNil(t, sink.pending["morning-2026-02-10"].DeliveredAt)
}

func TestFireDueExpiresEarlierDays(t *testing.T) {
	sink := newMemSink()
	seedWeek(t, sink)
	now := cal.AddDays(dayStart, 1).Add(6 * time.Hour)
	deliverer := &recordingDeliverer{}

	d := NewDispatcher(sink, NewPresenter(&staticRecords{}, fixedClock(now), cal), deliverer, fixedClock(now), cal)
	report, err := d.FireDue(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"morning-2026-02-10", "evening-2026-02-10"}, report.Expired)
	assert.Empty(t, report.Delivered)
	assert.Empty(t, deliverer.sent)
}

func TestFireDueFailedDeliveryStaysPending(t *testing.T) {
	sink := newMemSink()
	seedWeek(t, sink)
	now := dayStart.Add(8 * time.Hour)
	deliverer := &recordingDeliverer{fail: errors.New("tray not running")}

	d := NewDispatcher(sink, NewPresenter(&staticRecords{}, fixedClock(now), cal), deliverer, fixedClock(now), cal)
	report, err := d.FireDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"morning-2026-02-10"}, report.Failed)
	assert.Nil(t, sink.pending["morning-2026-02-10"].DeliveredAt)
}

func TestFireDueDryRun(t *testing.T) {
	sink := newMemSink()
	seedWeek(t, sink)
	now := dayStart.Add(8 * time.Hour)
	deliverer := &recordingDeliverer{}

	d := NewDispatcher(sink, NewPresenter(&staticRecords{}, fixedClock(now), cal), deliverer, fixedClock(now), cal)
	d.DryRun = true
	report, err := d.FireDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"morning-2026-02-10"}, report.Delivered)
	assert.Empty(t, deliverer.sent)
	assert.Nil(t, sink.pending["morning-2026-02-10"].DeliveredAt)
}
