package utils

import (
	. "HistoryDB/internal/domain"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendIntervalAndReadOneInterval(t *testing.T) {
	var buf bytes.Buffer

	interval := NewStateInterval(5, 10, 3, NewStringValue("syscall_read"))

	err := AppendInterval(&buf, interval)
	require.NoError(t, err)

	size, err := IntervalSize(interval)
	require.NoError(t, err)
	assert.Equal(t, size, buf.Len())

	read, err := ReadOneInterval(&buf)
	require.NoError(t, err)
	assert.Equal(t, interval, read)
}

func TestIntervalSizeMatchesEncoding(t *testing.T) {
	values := []StateValue{
		NullValue(),
		NewBooleanValue(true),
		NewBooleanValue(false),
		NewIntValue(-7),
		NewLongValue(1 << 40),
		NewDoubleValue(3.25),
		NewStringValue(""),
		NewStringValue("abcdefghifklmnopqrstuvw"),
	}
	for _, v := range values {
		interval := NewStateInterval(0, 1, 1, v)
		var buf bytes.Buffer
		require.NoError(t, AppendInterval(&buf, interval))

		size, err := IntervalSize(interval)
		require.NoError(t, err)
		assert.Equal(t, size, buf.Len(), "value type %s", v.Type())
	}

	nullSize, _ := IntervalSize(NewStateInterval(0, 1, 1, NullValue()))
	assert.Equal(t, IntervalHeaderSize, nullSize)
}

func TestReadIntervals(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "intervals")
	require.NoError(t, err)
	defer tmpFile.Close()

	expected := []StateInterval{
		NewStateInterval(0, 4, 1, NewIntValue(1)),
		NewStateInterval(0, 6, 2, NewDoubleValue(0.5)),
		NewStateInterval(5, 9, 1, NewStringValue("idle")),
	}
	for _, i := range expected {
		require.NoError(t, AppendInterval(tmpFile, i))
	}

	_, err = tmpFile.Seek(0, io.SeekStart)
	require.NoError(t, err)

	intervals, err := ReadIntervals(tmpFile, len(expected))
	require.NoError(t, err)
	assert.Equal(t, expected, intervals)
}

func TestReadIntervals_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AppendInterval(&buf, NewStateInterval(0, 1, 1, NewLongValue(9))))

	_, err := ReadIntervals(&buf, 2)
	assert.True(t, errors.Is(err, ErrCorruptInterval), "expected corrupt interval error, got %v", err)
}

func TestReadOneInterval_EOF(t *testing.T) {
	_, err := ReadOneInterval(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestReadOneInterval_UnknownType(t *testing.T) {
	data := make([]byte, IntervalHeaderSize)
	data[0] = 0x7f

	_, err := ReadOneInterval(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrCorruptInterval)
}

func TestReadOneInterval_MissingTerminator(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AppendInterval(&buf, NewStateInterval(0, 1, 1, NewStringValue("ab"))))
	data := buf.Bytes()
	data[len(data)-1] = 'x'

	_, err := ReadOneInterval(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrCorruptInterval)
}

func TestIntervalSize_TooLarge(t *testing.T) {
	huge := NewStringValue(strings.Repeat("x", MaxIntervalSize))
	_, err := IntervalSize(NewStateInterval(0, 1, 1, huge))
	assert.ErrorIs(t, err, ErrIntervalTooLarge)
}

func TestIntervalSize_QuarkOutOfRange(t *testing.T) {
	for _, quark := range []int{-1, MaxQuark + 1, 1 << 32} {
		interval := NewStateInterval(0, 1, quark, NullValue())
		_, err := IntervalSize(interval)
		assert.ErrorIs(t, err, ErrInvalidQuark)

		var buf bytes.Buffer
		assert.ErrorIs(t, AppendInterval(&buf, interval), ErrInvalidQuark)
		assert.Zero(t, buf.Len())
	}
}
