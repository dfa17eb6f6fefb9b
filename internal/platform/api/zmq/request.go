package zmq

import "HistoryDB/internal/platform/api"

const (
	INSERT = "INSERT"
	FINISH = "FINISH"
	QUERY  = "QUERY"
	BOUNDS = "BOUNDS"
)

// ApiRequest is one REQ frame. QUERY with Quark set is a singular query,
// with Quarks a partial query, and with NbAttributes a full query.
type ApiRequest struct {
	Action       string            `json:"action,omitempty"`
	Intervals    []api.IntervalDTO `json:"intervals,omitempty"`
	EndTime      int64             `json:"end_time,omitempty"`
	Time         int64             `json:"time,omitempty"`
	Quark        *int              `json:"quark,omitempty"`
	Quarks       []int             `json:"quarks,omitempty"`
	NbAttributes int               `json:"nb_attributes,omitempty"`
}

type ApiResponse struct {
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
	Inserted  int                     `json:"inserted,omitempty"`
	StartTime int64                   `json:"start_time,omitempty"`
	EndTime   int64                   `json:"end_time,omitempty"`
	Interval  *api.IntervalDTO        `json:"interval,omitempty"`
	Intervals []*api.IntervalDTO      `json:"intervals,omitempty"`
	ByQuark   map[int]api.IntervalDTO `json:"by_quark,omitempty"`
}
