package client

import (
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/api"
	"HistoryDB/internal/platform/api/zmq"
	"context"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
)

// IngestClient feeds intervals to the zmq api. A REQ socket allows one
// request in flight, so calls are serialized.
type IngestClient struct {
	mu     sync.Mutex
	socket zmq4.Socket
	cancel context.CancelFunc
}

func NewIngestClient(endpoint string) (*IngestClient, error) {
	ctx, cancel := context.WithCancel(context.Background())
	socket := zmq4.NewReq(ctx)
	if err := socket.Dial(endpoint); err != nil {
		cancel()
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return &IngestClient{socket: socket, cancel: cancel}, nil
}

func (c *IngestClient) Insert(intervals []domain.StateInterval) (zmq.ApiResponse, error) {
	dtos := make([]api.IntervalDTO, len(intervals))
	for i, interval := range intervals {
		dtos[i] = api.FromInterval(interval)
	}
	return c.Send(zmq.ApiRequest{Action: zmq.INSERT, Intervals: dtos})
}

func (c *IngestClient) Finish(endTime int64) (zmq.ApiResponse, error) {
	return c.Send(zmq.ApiRequest{Action: zmq.FINISH, EndTime: endTime})
}

func (c *IngestClient) Query(t int64, quark int) (domain.StateInterval, error) {
	resp, err := c.Send(zmq.ApiRequest{Action: zmq.QUERY, Time: t, Quark: &quark})
	if err != nil {
		return domain.StateInterval{}, err
	}
	if resp.Interval == nil {
		return domain.StateInterval{}, fmt.Errorf("empty query response")
	}
	return resp.Interval.ToInterval()
}

// Send performs one request/reply exchange. A response with Success unset
// is returned together with an error carrying its message.
func (c *IngestClient) Send(request zmq.ApiRequest) (zmq.ApiResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return zmq.ApiResponse{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.socket.Send(zmq4.NewMsg(payload)); err != nil {
		return zmq.ApiResponse{}, err
	}
	msg, err := c.socket.Recv()
	if err != nil {
		return zmq.ApiResponse{}, err
	}

	var resp zmq.ApiResponse
	if err := json.Unmarshal(msg.Bytes(), &resp); err != nil {
		return zmq.ApiResponse{}, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s failed: %s", request.Action, resp.Error)
	}
	return resp, nil
}

func (c *IngestClient) Close() error {
	defer c.cancel()
	return c.socket.Close()
}
