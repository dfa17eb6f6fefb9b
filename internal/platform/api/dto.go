package api

import (
	. "HistoryDB/internal/domain"
	"fmt"
	"math"
)

// StateValueDTO carries a state value on the wire. Integer values use the
// long field.
type StateValueDTO struct {
	Type   string  `json:"type"`
	Bool   bool    `json:"bool,omitempty"`
	Long   int64   `json:"long,omitempty"`
	Double float64 `json:"double,omitempty"`
	String string  `json:"string,omitempty"`
}

type IntervalDTO struct {
	Start int64         `json:"start"`
	End   int64         `json:"end"`
	Quark int           `json:"quark"`
	Value StateValueDTO `json:"value"`
}

type InsertRequest struct {
	Intervals []IntervalDTO `json:"intervals"`
}

type InsertResponse struct {
	Inserted int   `json:"inserted"`
	EndTime  int64 `json:"end_time"`
}

type FinishRequest struct {
	EndTime int64 `json:"end_time"`
}

type BoundsResponse struct {
	SSID      string `json:"ssid"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}

type IntervalResponse struct {
	Interval IntervalDTO `json:"interval"`
}

// QueryResponse answers full and partial queries. Full queries fill
// Intervals by quark, partial queries fill ByQuark.
type QueryResponse struct {
	Time      int64               `json:"time"`
	Intervals []*IntervalDTO      `json:"intervals,omitempty"`
	ByQuark   map[int]IntervalDTO `json:"by_quark,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromValue(v StateValue) StateValueDTO {
	dto := StateValueDTO{Type: v.Type().String()}
	switch v.Type() {
	case BooleanType:
		dto.Bool, _ = v.Boolean()
	case IntegerType:
		n, _ := v.Int()
		dto.Long = int64(n)
	case LongType:
		dto.Long, _ = v.Long()
	case DoubleType:
		dto.Double, _ = v.Double()
	case StringType:
		dto.String, _ = v.Str()
	}
	return dto
}

func (d StateValueDTO) ToValue() (StateValue, error) {
	switch d.Type {
	case NullType.String(), "":
		return NullValue(), nil
	case BooleanType.String():
		return NewBooleanValue(d.Bool), nil
	case IntegerType.String():
		if d.Long < math.MinInt32 || d.Long > math.MaxInt32 {
			return StateValue{}, fmt.Errorf("%w: %d does not fit an integer value", ErrStateValueType, d.Long)
		}
		return NewIntValue(int32(d.Long)), nil
	case LongType.String():
		return NewLongValue(d.Long), nil
	case DoubleType.String():
		return NewDoubleValue(d.Double), nil
	case StringType.String():
		return NewStringValue(d.String), nil
	default:
		return StateValue{}, fmt.Errorf("%w: unknown value type %q", ErrStateValueType, d.Type)
	}
}

func FromInterval(i StateInterval) IntervalDTO {
	return IntervalDTO{
		Start: i.Start(),
		End:   i.End(),
		Quark: i.Quark(),
		Value: FromValue(i.Value()),
	}
}

func (d IntervalDTO) ToInterval() (StateInterval, error) {
	value, err := d.Value.ToValue()
	if err != nil {
		return StateInterval{}, err
	}
	return NewStateInterval(d.Start, d.End, d.Quark, value), nil
}

func ToIntervals(dtos []IntervalDTO) ([]StateInterval, error) {
	intervals := make([]StateInterval, 0, len(dtos))
	for _, dto := range dtos {
		interval, err := dto.ToInterval()
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
	}
	return intervals, nil
}
