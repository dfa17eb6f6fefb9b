package domain

// StateHistoryBackend stores the past states of every attribute of one state
// system. A single producer inserts intervals in non-decreasing end time order;
// any number of readers may query concurrently with it.
type StateHistoryBackend interface {
	// SSID is the diagnostic id of the state system feeding this backend.
	SSID() string

	// StartTime is fixed at creation. EndTime grows as intervals are inserted.
	StartTime() int64
	EndTime() int64

	// InsertPastState appends one interval. It fails with ErrTimeRange when
	// start > end or start < StartTime(), and with ErrInvalidQuark when the
	// quark does not fit a history file. Concurrent writers are serialized.
	InsertPastState(start, end int64, quark int, value StateValue) error

	// FinishBuilding seals any state still in memory. The end time may be
	// later than the last inserted interval, but not earlier.
	FinishBuilding(endTime int64) error

	// RemoveFiles deletes anything the backend wrote to disk.
	RemoveFiles() error

	// Dispose releases file handles. It must not race with queries.
	Dispose() error

	// DoQuery writes, at index quark of stateInfo, the interval covering t for
	// every attribute that has one. Quarks beyond len(stateInfo) are ignored.
	DoQuery(stateInfo []*StateInterval, t int64) error

	// DoSingularQuery returns the unique interval covering quark at t.
	DoSingularQuery(t int64, quark int) (StateInterval, error)

	// DoPartialQuery is DoQuery restricted to the given quarks, keyed by quark.
	DoPartialQuery(t int64, quarks QuarkSet, results map[int]StateInterval) error
}
