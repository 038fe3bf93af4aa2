package gate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crowley723/mattermost-update-notifier/version"
)

type memoryStore struct {
	records map[string]version.Version
	saves   int
	loadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]version.Version{}}
}

func (m *memoryStore) Load(name string) (version.Version, error) {
	if m.loadErr != nil {
		return version.Version{}, m.loadErr
	}
	if v, ok := m.records[name]; ok {
		return v, nil
	}
	return version.Zero(), nil
}

func (m *memoryStore) Save(name string, v version.Version) error {
	m.saves++
	m.records[name] = v
	return nil
}

var v = version.MustParse

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		latest       string
		installed    string
		lastNotified string
		want         Decision
	}{
		{"installed equals latest", "7.10.0", "7.10.0", "", UpToDate},
		{"installed newer than latest", "7.10.0", "7.11.0", "", UpToDate},
		{"zero padded equality", "7.10", "7.10.0", "", UpToDate},
		{"outdated never notified", "7.10.0", "7.9.0", "", Notify},
		{"outdated already notified", "7.10.0", "7.9.0", "7.10.0", PendingButNotified},
		{"outdated notified about newer", "7.10.0", "7.9.0", "7.11.0", PendingButNotified},
		{"outdated notified about older", "7.10.0", "7.8.0", "7.9.0", Notify},
		{"numeric not lexicographic", "10.0.0", "9.9.9", "", Notify},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := newMemoryStore()
			if test.lastNotified != "" {
				store.records["mm"] = v(test.lastNotified)
			}

			decision, _, err := New(store).Evaluate("mm", v(test.latest), v(test.installed))
			require.NoError(t, err)
			assert.Equal(t, test.want, decision)
			assert.Zero(t, store.saves, "evaluate must not write")
		})
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	g := New(store)

	first, _, err := g.Evaluate("mm", v("7.10.0"), v("7.9.0"))
	require.NoError(t, err)
	second, _, err := g.Evaluate("mm", v("7.10.0"), v("7.9.0"))
	require.NoError(t, err)

	assert.Equal(t, Notify, first)
	assert.Equal(t, first, second)
}

func TestAtMostOncePerVersion(t *testing.T) {
	store := newMemoryStore()
	g := New(store)

	decision, lastNotified, err := g.Evaluate("mm", v("7.10.0"), v("7.9.0"))
	require.NoError(t, err)
	require.Equal(t, Notify, decision)
	assert.Equal(t, "0.0.0", lastNotified.String())

	require.NoError(t, g.Commit("mm", v("7.10.0")))

	decision, lastNotified, err = g.Evaluate("mm", v("7.10.0"), v("7.9.0"))
	require.NoError(t, err)
	assert.Equal(t, PendingButNotified, decision)
	assert.Equal(t, "7.10.0", lastNotified.String())

	decision, _, err = g.Evaluate("mm", v("7.11.0"), v("7.9.0"))
	require.NoError(t, err)
	assert.Equal(t, Notify, decision, "a newer release is announced again")
}

func TestFirstSightSeeding(t *testing.T) {
	g := New(newMemoryStore())

	decision, lastNotified, err := g.Evaluate("brand-new", v("7.0.0"), v("6.0.0"))
	require.NoError(t, err)
	assert.Equal(t, Notify, decision)
	assert.Equal(t, "0.0.0", lastNotified.String())
}

func TestUncommittedDeliveryIsRetried(t *testing.T) {
	store := newMemoryStore()
	g := New(store)

	for cycle := 0; cycle < 3; cycle++ {
		decision, _, err := g.Evaluate("mm", v("7.10.0"), v("7.9.0"))
		require.NoError(t, err)
		assert.Equal(t, Notify, decision, "cycle %d", cycle)
	}
	assert.Zero(t, store.saves)
}

func TestEvaluateStoreError(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("disk on fire")

	_, _, err := New(store).Evaluate("mm", v("7.10.0"), v("7.9.0"))
	require.ErrorIs(t, err, store.loadErr)
}

func TestEvaluateRejectsEmptyVersions(t *testing.T) {
	g := New(newMemoryStore())

	_, _, err := g.Evaluate("mm", version.Version{}, v("7.9.0"))
	require.ErrorIs(t, err, version.ErrParse)

	require.ErrorIs(t, g.Commit("mm", version.Version{}), version.ErrParse)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "UP_TO_DATE", UpToDate.String())
	assert.Equal(t, "PENDING_BUT_NOTIFIED", PendingButNotified.String())
	assert.Equal(t, "NOTIFY", Notify.String())
}
