package client

import (
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/api"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

const (
	history_endpoint = "/history"
)

// HistoryClient queries a running history server over HTTP.
type HistoryClient struct {
	client    *resty.Client
	serverUrl string
}

func NewHistoryClient(serverUrl string) *HistoryClient {
	client := resty.New().
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &HistoryClient{
		client:    client,
		serverUrl: strings.TrimSuffix(serverUrl, "/"),
	}
}

func (c *HistoryClient) Bounds() (*api.BoundsResponse, error) {
	var resp api.BoundsResponse
	if err := c.do(c.client.R().SetResult(&resp), http.MethodGet, "/bounds"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HistoryClient) Singular(t int64, quark int) (domain.StateInterval, error) {
	var resp api.IntervalResponse
	req := c.client.R().
		SetResult(&resp).
		SetQueryParam("t", strconv.FormatInt(t, 10))
	if err := c.do(req, http.MethodGet, "/"+strconv.Itoa(quark)); err != nil {
		return domain.StateInterval{}, err
	}
	return resp.Interval.ToInterval()
}

func (c *HistoryClient) Partial(t int64, quarks []int) (map[int]domain.StateInterval, error) {
	parts := make([]string, len(quarks))
	for i, quark := range quarks {
		parts[i] = strconv.Itoa(quark)
	}

	var resp api.QueryResponse
	req := c.client.R().
		SetResult(&resp).
		SetQueryParam("t", strconv.FormatInt(t, 10)).
		SetQueryParam("quarks", strings.Join(parts, ","))
	if err := c.do(req, http.MethodGet, ""); err != nil {
		return nil, err
	}

	intervals := make(map[int]domain.StateInterval, len(resp.ByQuark))
	for quark, dto := range resp.ByQuark {
		interval, err := dto.ToInterval()
		if err != nil {
			return nil, err
		}
		intervals[quark] = interval
	}
	return intervals, nil
}

// Full returns one slot per attribute; slots without a state are nil.
func (c *HistoryClient) Full(t int64, nbAttributes int) ([]*domain.StateInterval, error) {
	var resp api.QueryResponse
	req := c.client.R().
		SetResult(&resp).
		SetQueryParam("t", strconv.FormatInt(t, 10)).
		SetQueryParam("nb_attributes", strconv.Itoa(nbAttributes))
	if err := c.do(req, http.MethodGet, ""); err != nil {
		return nil, err
	}

	intervals := make([]*domain.StateInterval, nbAttributes)
	for quark, dto := range resp.Intervals {
		if dto == nil || quark >= nbAttributes {
			continue
		}
		interval, err := dto.ToInterval()
		if err != nil {
			return nil, err
		}
		intervals[quark] = &interval
	}
	return intervals, nil
}

func (c *HistoryClient) Insert(intervals []domain.StateInterval) (*api.InsertResponse, error) {
	body := api.InsertRequest{Intervals: make([]api.IntervalDTO, len(intervals))}
	for i, interval := range intervals {
		body.Intervals[i] = api.FromInterval(interval)
	}

	var resp api.InsertResponse
	if err := c.do(c.client.R().SetResult(&resp).SetBody(&body), http.MethodPost, "/intervals"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HistoryClient) Finish(endTime int64) (*api.BoundsResponse, error) {
	var resp api.BoundsResponse
	req := c.client.R().SetResult(&resp).SetBody(&api.FinishRequest{EndTime: endTime})
	if err := c.do(req, http.MethodPost, "/finish"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HistoryClient) do(req *resty.Request, method, path string) error {
	var failure api.ErrorResponse
	resp, err := req.SetError(&failure).Execute(method, c.serverUrl+history_endpoint+path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errorFor(resp.StatusCode(), failure.Error)
	}
	return nil
}

// errorFor maps a failed response back onto the history errors.
func errorFor(status int, message string) error {
	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = domain.ErrAttributeNotFound
	case http.StatusRequestedRangeNotSatisfiable:
		sentinel = domain.ErrTimeRange
	case http.StatusConflict:
		sentinel = domain.ErrBackendFinished
	case http.StatusServiceUnavailable:
		sentinel = domain.ErrBackendDisposed
	default:
		return fmt.Errorf("history server returned %d: %s", status, message)
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}
