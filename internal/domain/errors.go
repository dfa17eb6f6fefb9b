package domain

import (
	"errors"
	"math"
)

// MaxQuark is the largest quark a history file can store.
const MaxQuark = math.MaxInt32

var (
	ErrTimeRange         = errors.New("time outside the range of the state history")
	ErrAttributeNotFound = errors.New("no interval covers the attribute at the requested time")
	ErrStateValueType    = errors.New("state value accessed as the wrong type")
)

var (
	ErrBackendFinished    = errors.New("state history is finished and no longer accepts intervals")
	ErrBackendDisposed    = errors.New("state history backend has been disposed")
	ErrInvalidHistoryFile = errors.New("history file is invalid or incompatible")
	ErrInvalidQuark       = errors.New("quark outside the range of attribute handles")
)
