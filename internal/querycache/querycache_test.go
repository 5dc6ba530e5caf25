package querycache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoadsOnce(t *testing.T) {
	qc := New(time.Minute, time.Minute)
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Get(qc, "k", load)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
	}
	assert.Equal(t, 1, calls)
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	qc := New(time.Minute, time.Minute)
	calls := 0
	_, err := Get(qc, "k", func() (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)

	v, err := Get(qc, "k", func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestInvalidatePrefix(t *testing.T) {
	qc := New(time.Minute, time.Minute)
	for _, k := range []string{"training-progress:a", "training-progress:b", "training-videos"} {
		_, _ = Get(qc, k, func() (int, error) { return 1, nil })
	}

	qc.InvalidatePrefix("training-progress:")

	reloaded := 0
	for _, k := range []string{"training-progress:a", "training-progress:b", "training-videos"} {
		_, _ = Get(qc, k, func() (int, error) {
			reloaded++
			return 2, nil
		})
	}
	assert.Equal(t, 2, reloaded)
}
