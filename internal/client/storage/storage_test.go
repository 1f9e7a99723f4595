package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"rightguard/internal/client/api"
	"rightguard/internal/content"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDefaults(t *testing.T) {
	l := Local{S: NewMemory()}
	assert.Nil(t, l.User())
	assert.Equal(t, "California", l.SelectedState())
	assert.Equal(t, content.English, l.Language())
	assert.Equal(t, []string{}, l.EmergencyContacts())
}

func TestLocalIgnoresGarbage(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(KeyUser, "{not json"))
	require.NoError(t, m.Set(KeyLanguage, "fr"))
	require.NoError(t, m.Set(KeyEmergencyContacts, "42"))

	l := Local{S: m}
	assert.Nil(t, l.User())
	assert.Equal(t, content.English, l.Language())
	assert.Equal(t, []string{}, l.EmergencyContacts())
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	fs, err := Open(path)
	require.NoError(t, err)

	u := &api.User{
		UserID:           "u1",
		FarcasterProfile: "alice",
		SelectedState:    "Texas",
		PremiumFeatures:  []string{"stateSpecific"},
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	l := Local{S: fs}
	require.NoError(t, l.SetUser(u))
	require.NoError(t, l.SetSelectedState("New York"))
	require.NoError(t, l.SetLanguage(content.Spanish))
	require.NoError(t, l.SetEmergencyContacts([]string{"555-123-4567", "@friend"}))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reopened, err := Open(path)
	require.NoError(t, err)
	l2 := Local{S: reopened}
	if diff := cmp.Diff(u, l2.User()); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "New York", l2.SelectedState())
	assert.Equal(t, content.Spanish, l2.Language())
	assert.Equal(t, []string{"555-123-4567", "@friend"}, l2.EmergencyContacts())

	require.NoError(t, l2.SetUser(nil))
	again, err := Open(path)
	require.NoError(t, err)
	assert.Nil(t, Local{S: again}.User())
}

func TestFileStorageRollsBackFailedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	fs, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set(KeyLanguage, "es"))

	// a directory in the temp file's place makes every flush fail
	require.NoError(t, os.Mkdir(path+".tmp", 0o700))

	assert.Error(t, fs.Set(KeyLanguage, "en"))
	assert.Error(t, fs.Set(KeySelectedState, "Ohio"))
	assert.Error(t, fs.Delete(KeyLanguage))

	v, ok, err := fs.Get(KeyLanguage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "es", v)
	_, ok, err = fs.Get(KeySelectedState)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.Remove(path+".tmp"))
	reopened, err := Open(path)
	require.NoError(t, err)
	v, _, _ = reopened.Get(KeyLanguage)
	assert.Equal(t, "es", v)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestLocalSession(t *testing.T) {
	l := Local{S: NewMemory()}
	assert.Empty(t, l.Session())

	require.NoError(t, l.SetSession("tok"))
	assert.Equal(t, "tok", l.Session())

	require.NoError(t, l.SetSession(""))
	_, ok, err := l.S.Get(KeySession)
	require.NoError(t, err)
	assert.False(t, ok)
}
