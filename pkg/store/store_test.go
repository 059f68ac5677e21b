package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "readings.db"), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPutRange(t *testing.T) {
	s := openTestStore(t)

	for i, v := range []float64{4.2, 4.3, 4.1} {
		require.NoError(t, s.Put(Reading{
			Time:       t0.Add(time.Duration(i) * time.Minute),
			Instrument: "cryo",
			Name:       "Kelvin",
			Args:       []string{"1"},
			Value:      v,
		}))
	}
	require.NoError(t, s.Put(Reading{Time: t0.Add(90 * time.Second), Instrument: "cryo", Name: "Celsius", Value: -269.0}))

	all, err := s.Range("cryo", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Celsius", all[2].Name)

	kelvin, err := s.Range("cryo", "Kelvin", t0.Add(time.Minute), time.Time{})
	require.NoError(t, err)
	require.Len(t, kelvin, 2)
	assert.Equal(t, 4.3, kelvin[0].Value)
	assert.Equal(t, []string{"1"}, kelvin[0].Args)
	assert.True(t, kelvin[0].Time.Equal(t0.Add(time.Minute)))

	bounded, err := s.Range("cryo", "Kelvin", t0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	assert.Equal(t, 4.2, bounded[0].Value)

	none, err := s.Range("absent", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLatest(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(Reading{Time: t0, Instrument: "gauge", Name: "Pressure", Value: 1.5e-3}))
	require.NoError(t, s.Put(Reading{Time: t0.Add(time.Second), Instrument: "gauge", Name: "Pressure", Error: "timeout"}))
	require.NoError(t, s.Put(Reading{Time: t0.Add(2 * time.Second), Instrument: "gauge", Name: "ErrorStatus", Value: "no error"}))

	r, ok, err := s.Latest("gauge", "Pressure")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, r.OK())
	assert.Equal(t, "timeout", r.Error)

	_, ok, err = s.Latest("gauge", "Unit")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStructValueDecodesAsMap(t *testing.T) {
	s := openTestStore(t)

	type filter struct {
		On     bool
		Points int
	}
	require.NoError(t, s.Put(Reading{Time: t0, Instrument: "cryo", Name: "Filter", Value: filter{On: true, Points: 8}}))

	r, ok, err := s.Latest("cryo", "Filter")
	require.NoError(t, err)
	require.True(t, ok)
	m, isMap := r.Value.(map[string]any)
	require.True(t, isMap)
	assert.Equal(t, true, m["On"])
	assert.EqualValues(t, 8, m["Points"])
}

func TestInstrumentsAndPrune(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put(Reading{Time: t0, Instrument: "a", Name: "X"}))
	require.NoError(t, s.Put(Reading{Time: t0.Add(time.Hour), Instrument: "a", Name: "X"}))
	require.NoError(t, s.Put(Reading{Time: t0.Add(-time.Hour), Instrument: "b", Name: "Y"}))

	names, err := s.Instruments()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	n, err := s.Prune(t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.Range("a", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.True(t, left[0].Time.Equal(t0.Add(time.Hour)))
}

func TestPutRequiresInstrument(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Put(Reading{Name: "X"}))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")
	s, err := Open(path, Config{})
	require.NoError(t, err)
	require.NoError(t, s.Put(Reading{Time: t0, Instrument: "sg", Name: "Frequency", Value: 1e9}))
	require.NoError(t, s.Close())

	s, err = Open(path, Config{})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	r, ok, err := s.Latest("sg", "Frequency")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1e9, r.Value)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "readings.db"), Config{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put(Reading{Instrument: "sg", Name: "Power"}), ErrClosed)
	_, err = s.Range("sg", "", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Prune(t0)
	assert.ErrorIs(t, err, ErrClosed)
}
