package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scenarios.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Save("baseline", `{"start_age":30}`, `{"final":1000}`))

	sc, err := s.Load("baseline")
	require.NoError(t, err)
	assert.Equal(t, "baseline", sc.Name)
	assert.Equal(t, `{"start_age":30}`, sc.Settings)
	assert.Equal(t, `{"final":1000}`, sc.ResultData)
	assert.False(t, sc.CreatedAt.IsZero())
	assert.Equal(t, sc.CreatedAt, sc.UpdatedAt)
}

func TestSaveUpsertPreservesCreatedAt(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Save("baseline", "v1", "r1"))
	first, err := s.Load("baseline")
	require.NoError(t, err)

	require.NoError(t, s.Save("baseline", "v2", "r2"))
	second, err := s.Load("baseline")
	require.NoError(t, err)

	assert.Equal(t, "v2", second.Settings)
	assert.Equal(t, "r2", second.ResultData)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "Replacing must not reset the creation time")

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Saving under the same name replaces, not duplicates")
}

func TestLoadNotFound(t *testing.T) {
	s := testStore(t)

	sc, err := s.Load("missing")
	assert.Nil(t, sc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Save("alpha", "a", "1"))
	require.NoError(t, s.Save("beta", "b", "2"))

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
		assert.False(t, info.UpdatedAt.IsZero())
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.Save("alpha", "a", "1"))
	require.NoError(t, s.Delete("alpha"))

	_, err := s.Load("alpha")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Delete("alpha")
	assert.True(t, errors.Is(err, ErrNotFound), "Deleting a missing scenario reports not found")
}

func TestCountEmpty(t *testing.T) {
	s := testStore(t)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
