package state

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crowley723/mattermost-update-notifier/version"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "state"), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadMissingIsZero(t *testing.T) {
	s := newTestStore(t)

	v, err := s.Load("medisoft")
	require.NoError(t, err)
	assert.True(t, v.Equal(version.Zero()))

	_, err = os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err), "loading must not create files")
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("medisoft", version.MustParse("7.10.0")))

	v, err := s.Load("medisoft")
	require.NoError(t, err)
	assert.Equal(t, "7.10.0", v.String())

	other, err := s.Load("joerg")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", other.String())
}

func TestLoadTrimsWhitespace(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0700))
	require.NoError(t, os.WriteFile(s.Path("medisoft"), []byte("  9.5.1\n"), 0600))

	v, err := s.Load("medisoft")
	require.NoError(t, err)
	assert.Equal(t, "9.5.1", v.String())
}

func TestLoadCorruptRecord(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0700))
	require.NoError(t, os.WriteFile(s.Path("medisoft"), []byte("garbage"), 0600))

	_, err := s.Load("medisoft")
	require.ErrorIs(t, err, version.ErrParse)
}

func TestPathIsStablePerName(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, s.Path("medisoft"), s.Path("medisoft"))
	assert.NotEqual(t, s.Path("medisoft"), s.Path("joerg"))
	assert.Equal(t, s.Dir(), filepath.Dir(s.Path("../../etc/passwd")))
}

func TestMigrateOrdinal(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "lastversion1.txt"), []byte("7.9.0\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "lastversion2.txt"), []byte("7.10.0"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "lastversion3.txt"), []byte("not-a-version"), 0600))

	migrated, err := s.MigrateOrdinal(s.Dir(), []string{"medisoft", "joerg", "broken"})
	require.NoError(t, err)
	assert.Equal(t, 2, migrated)

	v, err := s.Load("medisoft")
	require.NoError(t, err)
	assert.Equal(t, "7.9.0", v.String())

	v, err = s.Load("joerg")
	require.NoError(t, err)
	assert.Equal(t, "7.10.0", v.String())

	_, err = os.Stat(filepath.Join(s.Dir(), "lastversion1.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.Dir(), "lastversion3.txt"))
	assert.NoError(t, err, "unparsable legacy files are left for inspection")
}

func TestMigrateOrdinalKeepsExistingRecords(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("medisoft", version.MustParse("8.0.0")))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "lastversion1.txt"), []byte("7.9.0"), 0600))

	migrated, err := s.MigrateOrdinal(s.Dir(), []string{"medisoft"})
	require.NoError(t, err)
	assert.Equal(t, 0, migrated)

	v, err := s.Load("medisoft")
	require.NoError(t, err)
	assert.Equal(t, "8.0.0", v.String())
}

func TestMigrateOrdinalFromLegacyDir(t *testing.T) {
	s := newTestStore(t)
	legacyDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "lastversion1.txt"), []byte("7.8.2\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "lastversion2.txt"), []byte("9.0.0"), 0600))

	migrated, err := s.MigrateOrdinal(legacyDir, []string{"medisoft", "joerg"})
	require.NoError(t, err)
	assert.Equal(t, 2, migrated)

	v, err := s.Load("joerg")
	require.NoError(t, err)
	assert.Equal(t, "9.0.0", v.String())

	_, err = os.Stat(filepath.Join(legacyDir, "lastversion1.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.Dir(), "lastversion1.txt"))
	assert.True(t, os.IsNotExist(err), "nothing is written back to the legacy layout")
}

func TestRenameKeepsLastNotified(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("medisoft", version.MustParse("7.10.0")))

	require.NoError(t, s.Rename("medisoft", "medisoft-prod"))

	v, err := s.Load("medisoft-prod")
	require.NoError(t, err)
	assert.Equal(t, "7.10.0", v.String())

	_, err = os.Stat(s.Path("medisoft"))
	assert.True(t, os.IsNotExist(err))

	v, err = s.Load("medisoft")
	require.NoError(t, err)
	assert.True(t, v.Equal(version.Zero()))
}

func TestRenameReplacesStaleRecord(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("medisoft", version.MustParse("8.1.0")))
	require.NoError(t, s.Save("joerg", version.MustParse("6.0.0")))

	require.NoError(t, s.Rename("medisoft", "joerg"))

	v, err := s.Load("joerg")
	require.NoError(t, err)
	assert.Equal(t, "8.1.0", v.String())
}

func TestRenameWithoutRecord(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Rename("medisoft", "medisoft-prod"))
	require.NoError(t, s.Rename("medisoft", "medisoft"))

	_, err := os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err))
}
