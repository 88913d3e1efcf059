package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
	"github.com/julianstephens/pills/internal/reminder"
)

var (
	_ reminder.Deliverer         = (*Tray)(nil)
	_ reminder.PermissionChecker = (*Tray)(nil)
	_ reminder.Deliverer         = (*SNS)(nil)
	_ reminder.PermissionChecker = (*SNS)(nil)
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func writeLockfile(t *testing.T, configDir, content string) {
	t.Helper()
	dir := filepath.Join(configDir, constants.TrayAppIdentifier)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.NotifierLockfileName), []byte(content), 0o644))
}

func pendingMorning() models.PendingReminder {
	r := models.Reminder{Period: models.PeriodMorning, DayKey: "2026-09-14", Hour: 8, Body: constants.MorningReminderBody}
	return models.PendingReminder{Identifier: r.Identifier(), Reminder: r, FireAt: time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := withConfigDir(t)

	dir, err := GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, constants.TrayAppIdentifier), dir)

	trayConfigDir := filepath.Join(tempDir, constants.TrayAppIdentifier)
	require.NoError(t, os.MkdirAll(trayConfigDir, 0o755))
	customDir := "/custom/pills/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	require.NoError(t, os.WriteFile(filepath.Join(trayConfigDir, "settings.json"), []byte(settingsJSON), 0o644))

	dir, err = GetTrayAppConfigDir()
	require.NoError(t, err)
	assert.Equal(t, customDir, dir)
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	_, _, err := findAndValidateTrayProcess(lockfilePath)
	assert.ErrorIs(t, err, ErrTrayNotRunning)

	withProcess(t, constants.TrayExecutablePrefix)
	for name, content := range map[string]string{
		"two parts":      "8080|12345",
		"garbage":        "invalid",
		"empty secret":   "8080|12345|",
		"empty port":     "|12345|secret",
		"port too large": "99999|12345|secret",
		"bad pid":        "8080|abc|secret",
	} {
		require.NoError(t, os.WriteFile(lockfilePath, []byte(content), 0o644))
		_, _, err := findAndValidateTrayProcess(lockfilePath)
		assert.Error(t, err, name)
		assert.False(t, errors.Is(err, ErrTrayNotRunning), name)
	}

	require.NoError(t, os.WriteFile(lockfilePath, []byte("8080|12345|testsecret123"), 0o644))

	withProcess(t, "")
	_, _, err = findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err)

	withProcess(t, "other-app")
	_, _, err = findAndValidateTrayProcess(lockfilePath)
	assert.Error(t, err)

	withProcess(t, constants.TrayExecutablePrefix)
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	require.NoError(t, err)
	assert.Equal(t, "8080", port)
	assert.Equal(t, "testsecret123", secret)
}

func TestTrayPermission(t *testing.T) {
	ctx := context.Background()
	configDir := withConfigDir(t)
	withProcess(t, constants.TrayExecutablePrefix)
	tray := NewTray()

	assert.Equal(t, models.PermissionNotDetermined, tray.Permission(ctx))

	writeLockfile(t, configDir, "8080|12345")
	assert.Equal(t, models.PermissionDenied, tray.Permission(ctx))
	granted, err := tray.RequestPermission(ctx)
	require.NoError(t, err)
	assert.False(t, granted)

	writeLockfile(t, configDir, "8080|12345|secret")
	assert.Equal(t, models.PermissionAuthorized, tray.Permission(ctx))
	granted, err = tray.RequestPermission(ctx)
	require.NoError(t, err)
	assert.True(t, granted)
}

func newTrayServer(t *testing.T, failures int) (*httptest.Server, *[]WebhookPayload) {
	t.Helper()
	var got []WebhookPayload
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Pills-Secret") != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		calls++
		if calls <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got = append(got, payload)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func serverPort(server *httptest.Server) string {
	parts := strings.Split(server.URL, ":")
	return parts[len(parts)-1]
}

func TestSendNotification(t *testing.T) {
	server, got := newTrayServer(t, 0)
	port := serverPort(server)
	ctx := context.Background()

	require.NoError(t, sendNotification(ctx, server.Client(), port, "test-secret", WebhookPayload{Text: "hello"}))
	require.Len(t, *got, 1)
	assert.Equal(t, "hello", (*got)[0].Text)

	assert.Error(t, sendNotification(ctx, server.Client(), port, "", WebhookPayload{Text: "hello"}))
	assert.Error(t, sendNotification(ctx, server.Client(), port, "wrong-secret", WebhookPayload{Text: "hello"}))
}

func TestTrayDeliverRetries(t *testing.T) {
	configDir := withConfigDir(t)
	withProcess(t, constants.TrayExecutablePrefix)
	server, got := newTrayServer(t, 2)
	writeLockfile(t, configDir, serverPort(server)+"|12345|test-secret")

	tray := NewTray()
	tray.retryDelay = time.Millisecond

	require.NoError(t, tray.Deliver(context.Background(), pendingMorning()))
	require.Len(t, *got, 1)
	assert.Equal(t, constants.ReminderTitle, (*got)[0].Title)
	assert.Equal(t, constants.MorningReminderBody, (*got)[0].Text)
}

func TestTrayDeliverGivesUp(t *testing.T) {
	configDir := withConfigDir(t)
	withProcess(t, constants.TrayExecutablePrefix)
	server, got := newTrayServer(t, 10)
	writeLockfile(t, configDir, serverPort(server)+"|12345|test-secret")

	tray := NewTray()
	tray.retryDelay = time.Millisecond

	err := tray.Deliver(context.Background(), pendingMorning())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Empty(t, *got)
}

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSNSDeliver(t *testing.T) {
	pub := &fakePublisher{}
	s := NewSNSWithClient(pub, "arn:aws:sns:us-east-1:123456789012:pills")

	require.NoError(t, s.Deliver(context.Background(), pendingMorning()))
	require.Len(t, pub.inputs, 1)
	in := pub.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:pills", aws.ToString(in.TopicArn))
	assert.Equal(t, constants.MorningReminderBody, aws.ToString(in.Message))
	assert.Equal(t, "morning", aws.ToString(in.MessageAttributes["period"].StringValue))
	assert.Equal(t, "2026-09-14", aws.ToString(in.MessageAttributes["day"].StringValue))
}

func TestSNSDeliverErrors(t *testing.T) {
	ctx := context.Background()

	err := NewSNSWithClient(&fakePublisher{}, "").Deliver(ctx, pendingMorning())
	assert.ErrorIs(t, err, ErrNoTopic)

	boom := errors.New("throttled")
	err = NewSNSWithClient(&fakePublisher{err: boom}, "arn:topic").Deliver(ctx, pendingMorning())
	assert.ErrorIs(t, err, boom)
}

func TestSNSPermission(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, models.PermissionNotDetermined, NewSNSWithClient(&fakePublisher{}, "").Permission(ctx))
	assert.Equal(t, models.PermissionAuthorized, NewSNSWithClient(&fakePublisher{}, "arn:topic").Permission(ctx))

	ok, err := NewSNSWithClient(&fakePublisher{}, "").RequestPermission(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoTopic)
}

func TestFromSettings(t *testing.T) {
	s := models.DefaultSettings()
	b, err := FromSettings(context.Background(), s, "", "")
	require.NoError(t, err)
	assert.Equal(t, constants.NotifierTray, b.Name())

	s.NotifierBackend = "pager"
	_, err = FromSettings(context.Background(), s, "", "")
	assert.Error(t, err)
}

func TestMessageFallsBackToPeriod(t *testing.T) {
	r := pendingMorning()
	r.Reminder.Body = ""
	assert.Equal(t, "Remember to take pills this morning", message(r))
}
