package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervuhq/intervu/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "nested", "session.json"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	session := &models.Session{
		SessionID:     "sess-1",
		AccessToken:   "tok-abc",
		CandidateID:   "CAND001",
		CandidateName: "Ada",
		Role:          "Backend Engineer",
		CompanyName:   "Initech",
		Status:        models.StatusActive,
	}
	require.NoError(t, s.Save(session))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestLoad_NoSlot(t *testing.T) {
	s := testStore(t)

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_MalformedSlotDiscarded(t *testing.T) {
	s := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	// The corrupt slot must be gone so the next access flow starts clean.
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_MissingCredentialsDiscarded(t *testing.T) {
	s := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	// Valid JSON, but no access token. Unusable for any backend call.
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"sessionId":"sess-1"}`), 0o600))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSave_RejectsMissingCredentials(t *testing.T) {
	s := testStore(t)
	assert.Error(t, s.Save(&models.Session{SessionID: "sess-1"}))
}

func TestClear(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(&models.Session{SessionID: "sess-1", AccessToken: "tok"}))

	require.NoError(t, s.Clear())
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	// Clearing twice is fine.
	assert.NoError(t, s.Clear())
}

func TestSave_OverwritesPreviousSlot(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Save(&models.Session{SessionID: "sess-1", AccessToken: "tok-1"}))
	require.NoError(t, s.Save(&models.Session{SessionID: "sess-2", AccessToken: "tok-2"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "sess-2", got.SessionID)
}
