package utils

import (
	. "HistoryDB/internal/domain"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Type byte written in front of every serialized interval. Booleans carry
// their value in the type byte and have no payload.
const (
	typeNull         int8 = 0
	typeBooleanFalse int8 = 1
	typeBooleanTrue  int8 = 2
	typeInteger      int8 = 3
	typeLong         int8 = 4
	typeDouble       int8 = 5
	typeString       int8 = 6
)

const (
	// IntervalHeaderSize is type byte + start + end + quark.
	IntervalHeaderSize = 1 + 8 + 8 + 4
	// MaxIntervalSize bounds one serialized interval, string values included.
	MaxIntervalSize = math.MaxInt16
)

var (
	ErrIntervalTooLarge = errors.New("serialized interval exceeds the maximum interval size")
	ErrCorruptInterval  = errors.New("invalid interval data, the file may be corrupt")
)

// IntervalSize returns the number of bytes AppendInterval writes for i.
func IntervalSize(i StateInterval) (int, error) {
	if i.Quark() < 0 || i.Quark() > MaxQuark {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuark, i.Quark())
	}
	size := IntervalHeaderSize
	v := i.Value()
	switch v.Type() {
	case IntegerType:
		size += 4
	case LongType, DoubleType:
		size += 8
	case StringType:
		s, _ := v.Str()
		// length prefix + bytes + terminating zero
		size += 2 + len(s) + 1
	}
	if size > MaxIntervalSize {
		return 0, fmt.Errorf("%w: %d bytes for %s", ErrIntervalTooLarge, size, i)
	}
	return size, nil
}

func AppendInterval(w io.Writer, i StateInterval) error {
	if i.Quark() < 0 || i.Quark() > MaxQuark {
		return fmt.Errorf("%w: %d", ErrInvalidQuark, i.Quark())
	}
	v := i.Value()
	header := struct {
		Type  int8
		Start int64
		End   int64
		Quark int32
	}{
		Type:  typeByte(v),
		Start: i.Start(),
		End:   i.End(),
		Quark: int32(i.Quark()),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	switch v.Type() {
	case IntegerType:
		n, _ := v.Int()
		return binary.Write(w, binary.LittleEndian, n)
	case LongType:
		n, _ := v.Long()
		return binary.Write(w, binary.LittleEndian, n)
	case DoubleType:
		d, _ := v.Double()
		return binary.Write(w, binary.LittleEndian, d)
	case StringType:
		s, _ := v.Str()
		strBytes := []byte(s)
		if len(strBytes) > MaxIntervalSize {
			return fmt.Errorf("%w: string of %d bytes", ErrIntervalTooLarge, len(strBytes))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(strBytes))); err != nil {
			return err
		}
		if _, err := w.Write(strBytes); err != nil {
			return err
		}
		_, err := w.Write([]byte{0})
		return err
	}
	return nil
}

// ReadOneInterval decodes a single interval written by AppendInterval.
func ReadOneInterval(r io.Reader) (StateInterval, error) {
	var header struct {
		Type  int8
		Start int64
		End   int64
		Quark int32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return StateInterval{}, err
	}

	var value StateValue
	switch header.Type {
	case typeNull:
		value = NullValue()
	case typeBooleanFalse:
		value = NewBooleanValue(false)
	case typeBooleanTrue:
		value = NewBooleanValue(true)
	case typeInteger:
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return StateInterval{}, err
		}
		value = NewIntValue(n)
	case typeLong:
		var n int64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return StateInterval{}, err
		}
		value = NewLongValue(n)
	case typeDouble:
		var d float64
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return StateInterval{}, err
		}
		value = NewDoubleValue(d)
	case typeString:
		var strLen uint16
		if err := binary.Read(r, binary.LittleEndian, &strLen); err != nil {
			return StateInterval{}, err
		}
		strBytes := make([]byte, int(strLen)+1)
		if _, err := io.ReadFull(r, strBytes); err != nil {
			return StateInterval{}, err
		}
		if strBytes[strLen] != 0 {
			return StateInterval{}, ErrCorruptInterval
		}
		value = NewStringValue(string(strBytes[:strLen]))
	default:
		return StateInterval{}, fmt.Errorf("%w: unknown value type %d", ErrCorruptInterval, header.Type)
	}

	if header.Start > header.End {
		return StateInterval{}, fmt.Errorf("%w: start %d after end %d", ErrCorruptInterval, header.Start, header.End)
	}
	return NewStateInterval(header.Start, header.End, int(header.Quark), value), nil
}

// ReadIntervals decodes exactly count intervals from r.
func ReadIntervals(r io.Reader, count int) ([]StateInterval, error) {
	intervals := make([]StateInterval, 0, count)
	for range count {
		interval, err := ReadOneInterval(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: expected %d intervals, read %d", ErrCorruptInterval, count, len(intervals))
			}
			return nil, err
		}
		intervals = append(intervals, interval)
	}
	return intervals, nil
}

func typeByte(v StateValue) int8 {
	switch v.Type() {
	case BooleanType:
		if b, _ := v.Boolean(); b {
			return typeBooleanTrue
		}
		return typeBooleanFalse
	case IntegerType:
		return typeInteger
	case LongType:
		return typeLong
	case DoubleType:
		return typeDouble
	case StringType:
		return typeString
	default:
		return typeNull
	}
}
