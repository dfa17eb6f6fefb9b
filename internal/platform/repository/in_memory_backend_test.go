package repository

import (
	. "HistoryDB/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const numberOfAttributes = 10

// newInMemoryFixture stores, per attribute, an integer state over
// [100k+a, 100k+90+a] followed by a null state up to the next one.
func newInMemoryFixture(t *testing.T) *InMemoryBackend {
	backend := CreateInMemoryBackend("test-ss", 0)
	for attribute := 0; attribute < numberOfAttributes; attribute++ {
		for timeStart := int64(0); timeStart < 1000; timeStart++ {
			stateStartTime := timeStart*100 + int64(attribute)
			stateEndTime := timeStart*100 + 90 + int64(attribute)
			require.NoError(t, backend.InsertPastState(stateStartTime, stateEndTime, attribute, NewIntValue(int32(timeStart%100))))
			if timeStart != 999 {
				require.NoError(t, backend.InsertPastState(stateEndTime+1, stateEndTime+9, attribute, NullValue()))
			}
		}
	}
	return backend
}

func assertInterval(t *testing.T, interval StateInterval, start, end int64, value int32) {
	t.Helper()
	assert.Equal(t, start, interval.Start())
	assert.Equal(t, end, interval.End())
	actual, err := interval.Value().Int()
	require.NoError(t, err)
	assert.Equal(t, value, actual)
}

func TestInMemoryBackend_Bounds(t *testing.T) {
	backend := newInMemoryFixture(t)
	assert.Equal(t, int64(0), backend.StartTime())
	assert.Equal(t, int64(99999), backend.EndTime())
	assert.Equal(t, numberOfAttributes*1999, backend.Len())
}

func TestInMemoryBackend_DoQuery(t *testing.T) {
	backend := newInMemoryFixture(t)

	stateInfo := make([]*StateInterval, numberOfAttributes)
	require.NoError(t, backend.DoQuery(stateInfo, 950))

	for attribute, interval := range stateInfo {
		require.NotNil(t, interval)
		assertInterval(t, *interval, 900+int64(attribute), 990+int64(attribute), 9)
	}
}

func TestInMemoryBackend_SingularQueryMatchesFullQuery(t *testing.T) {
	backend := newInMemoryFixture(t)

	stateInfo := make([]*StateInterval, numberOfAttributes)
	require.NoError(t, backend.DoQuery(stateInfo, 950))

	for attribute := 0; attribute < numberOfAttributes; attribute++ {
		interval, err := backend.DoSingularQuery(950, attribute)
		require.NoError(t, err)
		assertInterval(t, interval, 900+int64(attribute), 990+int64(attribute), 9)
		assert.Equal(t, *stateInfo[attribute], interval)
	}
}

func TestInMemoryBackend_NullState(t *testing.T) {
	backend := newInMemoryFixture(t)

	interval, err := backend.DoSingularQuery(999, 0)
	require.NoError(t, err)
	assert.True(t, interval.Value().IsNull())
}

func TestInMemoryBackend_BeginAndEnd(t *testing.T) {
	backend := newInMemoryFixture(t)

	interval, err := backend.DoSingularQuery(0, 0)
	require.NoError(t, err)
	assertInterval(t, interval, 0, 90, 0)

	interval, err = backend.DoSingularQuery(99998, 9)
	require.NoError(t, err)
	assertInterval(t, interval, 99909, 99999, 99)
}

func TestInMemoryBackend_OutOfRange(t *testing.T) {
	backend := newInMemoryFixture(t)

	_, err := backend.DoSingularQuery(-1, 0)
	assert.ErrorIs(t, err, ErrTimeRange)

	_, err = backend.DoSingularQuery(100000, 0)
	assert.ErrorIs(t, err, ErrTimeRange)
}

func TestInMemoryBackend_Basic(t *testing.T) {
	backend := CreateInMemoryBackend("basic", 0)
	require.NoError(t, backend.InsertPastState(0, 1, 1, NullValue()))

	interval, err := backend.DoSingularQuery(0, 1)
	require.NoError(t, err)
	assert.Equal(t, NewStateInterval(0, 1, 1, NullValue()), interval)

	_, err = backend.DoSingularQuery(2, 1)
	assert.ErrorIs(t, err, ErrTimeRange)
}
