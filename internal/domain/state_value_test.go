package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateValue_Accessors(t *testing.T) {
	v := NewLongValue(42)
	got, err := v.Long()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = v.Int()
	assert.True(t, errors.Is(err, ErrStateValueType), "expected a type error, got %v", err)

	s, err := NewStringValue("running").Str()
	assert.NoError(t, err)
	assert.Equal(t, "running", s)

	b, err := NewBooleanValue(true).Boolean()
	assert.NoError(t, err)
	assert.True(t, b)

	_, err = NullValue().Double()
	assert.ErrorIs(t, err, ErrStateValueType)
}

func TestStateValue_ZeroIsNull(t *testing.T) {
	var v StateValue
	assert.True(t, v.IsNull())
	assert.Equal(t, NullValue(), v)
	assert.Equal(t, "nullValue", v.String())
}

func TestStateValue_Equality(t *testing.T) {
	assert.Equal(t, NewIntValue(3), NewIntValue(3))
	assert.NotEqual(t, NewIntValue(3), NewLongValue(3))
	assert.NotEqual(t, NewBooleanValue(false), NullValue())
}

func TestStateInterval_Intersects(t *testing.T) {
	i := NewStateInterval(10, 20, 1, NullValue())
	assert.False(t, i.Intersects(9))
	assert.True(t, i.Intersects(10))
	assert.True(t, i.Intersects(20))
	assert.False(t, i.Intersects(21))
}

func TestQuarkSet(t *testing.T) {
	s := NewQuarkSet(1, 2, 2)
	assert.Len(t, s, 2)
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(3))
}
