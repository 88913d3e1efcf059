package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "pills.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE dose_records (day_key TEXT PRIMARY KEY, morning_taken INTEGER, evening_taken INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO dose_records VALUES ('2026-09-13', 1, 1), ('2026-09-14', 1, 0)`)
	require.NoError(t, err)
	return dbPath
}

func countRecords(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM dose_records").Scan(&n))
	return n
}

// steppingClock advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	cur := start.Add(-time.Second)
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(steppingClock(time.Date(2026, 9, 14, 8, 30, 0, 0, time.Local))))

	info, err := mgr.Create()
	require.NoError(t, err)
	assert.Equal(t, "pills-20260914-083000.db", info.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(dbPath), "backups"), mgr.BackupDir())
	assert.Positive(t, info.Size)
	assert.Equal(t, 2, countRecords(t, info.Path))
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	_, err := mgr.Create()
	assert.Error(t, err)
}

func TestCreateSameSecondAddsCounter(t *testing.T) {
	dbPath := setupTestDB(t)
	fixed := time.Date(2026, 9, 14, 8, 30, 0, 0, time.Local)
	mgr := NewManager(dbPath, WithClock(func() time.Time { return fixed }))

	var names []string
	for i := 0; i < 3; i++ {
		info, err := mgr.Create()
		require.NoError(t, err)
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"pills-20260914-083000.db", "pills-20260914-083000-1.db", "pills-20260914-083000-2.db"}, names)

	backups, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "pills-20260914-083000-2.db", backups[0].Name)
	assert.Equal(t, "pills-20260914-083000.db", backups[2].Name)
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	start := time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local)
	mgr := NewManager(dbPath, WithMaxBackups(3), WithClock(steppingClock(start)))

	for i := 0; i < 5; i++ {
		_, err := mgr.Create()
		require.NoError(t, err)
	}

	backups, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.True(t, start.Add(4*time.Second).Equal(backups[0].Timestamp))
	assert.True(t, start.Add(2*time.Second).Equal(backups[2].Timestamp))
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backups, err := mgr.List()
	require.NoError(t, err)
	assert.Empty(t, backups)

	require.NoError(t, os.MkdirAll(mgr.BackupDir(), 0o700))
	for _, name := range []string{"notes.txt", "pills-garbage.db", "pills-20260914-083000-x.db", "other-20260914-083000.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(mgr.BackupDir(), name), []byte("x"), 0o600))
	}

	backups, err = mgr.List()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(steppingClock(time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local))))

	snapshot, err := mgr.Create()
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO dose_records VALUES ('2026-09-15', 1, 0)")
	require.NoError(t, err)
	db.Close()
	require.Equal(t, 3, countRecords(t, dbPath))

	previous, err := mgr.Restore(snapshot.Path)
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, 2, countRecords(t, dbPath))
	assert.Equal(t, 3, countRecords(t, previous.Path))
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	_, err := mgr.Restore(filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	require.NoError(t, os.WriteFile(bogus, []byte("this is not a sqlite database, not even close"), 0o600))
	_, err = mgr.Restore(bogus)
	assert.Error(t, err)
	assert.Equal(t, 2, countRecords(t, dbPath))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, in.Body); err != nil {
		return nil, err
	}
	f.body = buf.Bytes()
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(steppingClock(time.Date(2026, 9, 14, 8, 0, 0, 0, time.Local))))
	info, err := mgr.Create()
	require.NoError(t, err)

	putter := &fakePutter{}
	up := NewUploaderWithClient(putter, "pills-backups", "laptop")

	uri, err := up.Upload(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, "s3://pills-backups/laptop/pills-20260914-080000.db", uri)
	assert.Equal(t, "pills-backups", aws.ToString(putter.input.Bucket))
	assert.Equal(t, info.Size, aws.ToInt64(putter.input.ContentLength))
	assert.Len(t, putter.body, int(info.Size))
}

func TestUploadError(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	info, err := mgr.Create()
	require.NoError(t, err)

	boom := errors.New("access denied")
	_, err = NewUploaderWithClient(&fakePutter{err: boom}, "b", "").Upload(context.Background(), info)
	assert.ErrorIs(t, err, boom)
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	_, err := NewUploader(context.Background(), S3Config{})
	assert.Error(t, err)
}
