package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/encryption"
	"github.com/mdawahq/mdawa-transfer/internal/merge"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
	"github.com/mdawahq/mdawa-transfer/internal/patient"
	"github.com/mdawahq/mdawa-transfer/internal/record"
)

func newTestStore(t *testing.T, enc encryption.Service) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.json")
	fs, err := NewFileStore(path, enc)
	require.NoError(t, err)
	return fs
}

func TestFileStore_EmptyOnFirstOpen(t *testing.T) {
	fs := newTestStore(t, nil)
	ctx := context.Background()

	ds, err := fs.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds.Patients)

	sessions, err := fs.LoadSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStore_DatasetRoundTrip(t *testing.T) {
	fs := newTestStore(t, nil)
	ctx := context.Background()

	created := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	ds := merge.Dataset{
		Patients:       []patient.Patient{{ID: "p1", FirstName: "Amina", CreatedAt: created, UpdatedAt: created}},
		MedicalRecords: []record.MedicalRecord{{ID: "r1", PatientID: "p1", Diagnosis: "malaria", CreatedAt: created, UpdatedAt: created}},
	}
	require.NoError(t, fs.SaveDataset(ctx, ds))

	loaded, err := fs.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds.Patients, loaded.Patients)
	assert.Equal(t, ds.MedicalRecords, loaded.MedicalRecords)
}

func TestFileStore_SessionsSurviveDatasetWrites(t *testing.T) {
	fs := newTestStore(t, nil)
	ctx := context.Background()

	sessions := []otp.Session{{
		Code:      "482913",
		PatientID: "p1",
		ExpiresAt: time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC),
	}}
	require.NoError(t, fs.SaveSessions(ctx, sessions))
	require.NoError(t, fs.SaveDataset(ctx, merge.Dataset{Patients: []patient.Patient{{ID: "p1"}}}))

	loaded, err := fs.LoadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "482913", loaded[0].Code)
}

func TestFileStore_UsersRoundTrip(t *testing.T) {
	fs := newTestStore(t, nil)
	ctx := context.Background()

	users := []auth.User{{ID: "u1", Email: "doc@example.org", Role: auth.RoleDoctor}}
	require.NoError(t, fs.SaveUsers(ctx, users))

	loaded, err := fs.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, loaded)
}

func TestFileStore_CollectionKeysOnDisk(t *testing.T) {
	fs := newTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, fs.SaveDataset(ctx, merge.Dataset{Patients: []patient.Patient{{ID: "p1"}}}))

	raw, err := os.ReadFile(fs.path)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, key := range []string{"patients", "medicalRecords", "prescriptions", "appointments", "labResults", "vitals", "otpSessions", "users"} {
		assert.Contains(t, keys, key)
	}
}

func TestFileStore_EncryptedAtRest(t *testing.T) {
	enc, err := encryption.NewService("")
	require.NoError(t, err)

	fs := newTestStore(t, enc)
	ctx := context.Background()
	require.NoError(t, fs.SaveDataset(ctx, merge.Dataset{Patients: []patient.Patient{{ID: "p1", FirstName: "Amina"}}}))

	raw, err := os.ReadFile(fs.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Amina", "plaintext must not appear on disk")

	loaded, err := fs.LoadDataset(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Patients, 1)
	assert.Equal(t, "Amina", loaded.Patients[0].FirstName)
}
