package domain

import (
	"fmt"
	"strconv"
)

type StateValueType int

const (
	NullType StateValueType = iota
	BooleanType
	IntegerType
	LongType
	DoubleType
	StringType
)

func (t StateValueType) String() string {
	switch t {
	case NullType:
		return "null"
	case BooleanType:
		return "boolean"
	case IntegerType:
		return "integer"
	case LongType:
		return "long"
	case DoubleType:
		return "double"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// StateValue is the tagged value carried by a state interval. The zero value
// is the null value.
type StateValue struct {
	kind StateValueType
	num  int64
	dbl  float64
	str  string
}

func NullValue() StateValue {
	return StateValue{}
}

func NewBooleanValue(v bool) StateValue {
	var n int64
	if v {
		n = 1
	}
	return StateValue{kind: BooleanType, num: n}
}

func NewIntValue(v int32) StateValue {
	return StateValue{kind: IntegerType, num: int64(v)}
}

func NewLongValue(v int64) StateValue {
	return StateValue{kind: LongType, num: v}
}

func NewDoubleValue(v float64) StateValue {
	return StateValue{kind: DoubleType, dbl: v}
}

func NewStringValue(v string) StateValue {
	return StateValue{kind: StringType, str: v}
}

func (v StateValue) Type() StateValueType {
	return v.kind
}

func (v StateValue) IsNull() bool {
	return v.kind == NullType
}

func (v StateValue) Boolean() (bool, error) {
	if v.kind != BooleanType {
		return false, v.typeError(BooleanType)
	}
	return v.num != 0, nil
}

func (v StateValue) Int() (int32, error) {
	if v.kind != IntegerType {
		return 0, v.typeError(IntegerType)
	}
	return int32(v.num), nil
}

func (v StateValue) Long() (int64, error) {
	if v.kind != LongType {
		return 0, v.typeError(LongType)
	}
	return v.num, nil
}

func (v StateValue) Double() (float64, error) {
	if v.kind != DoubleType {
		return 0, v.typeError(DoubleType)
	}
	return v.dbl, nil
}

func (v StateValue) Str() (string, error) {
	if v.kind != StringType {
		return "", v.typeError(StringType)
	}
	return v.str, nil
}

func (v StateValue) String() string {
	switch v.kind {
	case BooleanType:
		return strconv.FormatBool(v.num != 0)
	case IntegerType, LongType:
		return strconv.FormatInt(v.num, 10)
	case DoubleType:
		return strconv.FormatFloat(v.dbl, 'g', -1, 64)
	case StringType:
		return v.str
	default:
		return "nullValue"
	}
}

func (v StateValue) typeError(wanted StateValueType) error {
	return fmt.Errorf("%w: value is %s, accessed as %s", ErrStateValueType, v.kind, wanted)
}
