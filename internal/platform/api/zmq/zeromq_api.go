package zmq

import (
	"HistoryDB/internal/application/service"
	"HistoryDB/internal/platform/api"
	"HistoryDB/internal/platform/config"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
)

// ZmqApi is the ingestion surface. One REP socket is served by one
// goroutine, so inserts reach the backend from a single writer in
// arrival order.
type ZmqApi struct {
	socket   zmq4.Socket
	endpoint string
	services *Services
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
}

type Services struct {
	insert   *service.InsertStateService
	finish   *service.FinishBuildingService
	singular *service.SingularQueryService
	full     *service.FullQueryService
	partial  *service.PartialQueryService
	bounds   *service.BoundsService
}

func NewZmqApi(insert *service.InsertStateService,
	finish *service.FinishBuildingService,
	singular *service.SingularQueryService,
	full *service.FullQueryService,
	partial *service.PartialQueryService,
	bounds *service.BoundsService,
	conf config.Config,
	logger *slog.Logger) *ZmqApi {

	ctx, cancel := context.WithCancel(context.Background())
	return &ZmqApi{
		socket:   zmq4.NewRep(ctx),
		endpoint: conf.ZmqApiEndpoint,
		services: &Services{
			insert:   insert,
			finish:   finish,
			singular: singular,
			full:     full,
			partial:  partial,
			bounds:   bounds,
		},
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("component", "zmq_api"),
	}
}

// Listen binds the socket and serves requests until Close is called.
func (z *ZmqApi) Listen() error {
	if err := z.Bind(); err != nil {
		return err
	}
	z.Serve()
	return nil
}

func (z *ZmqApi) Bind() error {
	if err := z.socket.Listen(z.endpoint); err != nil {
		return fmt.Errorf("binding zmq socket to %s: %w", z.endpoint, err)
	}
	z.logger.Info("zmq api listening", "endpoint", z.endpoint)
	return nil
}

func (z *ZmqApi) Serve() {
	defer z.logger.Info("zmq api stopped")

	for {
		msg, err := z.socket.Recv()
		if err != nil {
			if z.ctx.Err() != nil || errors.Is(err, zmq4.ErrClosedConn) {
				return
			}
			z.logger.Warn("recv failed", "error", err)
			continue
		}

		var req ApiRequest
		if err := json.Unmarshal(msg.Bytes(), &req); err != nil {
			z.send(failure(fmt.Errorf("malformed request: %w", err)))
			continue
		}
		z.send(z.processRequest(&req))
	}
}

func (z *ZmqApi) processRequest(req *ApiRequest) ApiResponse {
	switch req.Action {
	case INSERT:
		intervals, err := api.ToIntervals(req.Intervals)
		if err != nil {
			return failure(err)
		}
		result, err := z.services.insert.Execute(service.InsertStateCommand{Intervals: intervals})
		response := ApiResponse{Success: err == nil, Inserted: result.Inserted, EndTime: result.EndTime}
		if err != nil {
			response.Error = err.Error()
		}
		return response

	case FINISH:
		result, err := z.services.finish.Execute(service.FinishBuildingCommand{EndTime: req.EndTime})
		if err != nil {
			return failure(err)
		}
		return ApiResponse{Success: true, StartTime: result.StartTime, EndTime: result.EndTime}

	case QUERY:
		return z.query(req)

	case BOUNDS:
		result := z.services.bounds.Execute()
		return ApiResponse{Success: true, StartTime: result.StartTime, EndTime: result.EndTime}

	default:
		z.logger.Warn("unknown action", "action", req.Action)
		return failure(fmt.Errorf("unknown action %q", req.Action))
	}
}

func (z *ZmqApi) query(req *ApiRequest) ApiResponse {
	switch {
	case req.Quark != nil:
		result, err := z.services.singular.Execute(service.SingularQuery{Time: req.Time, Quark: *req.Quark})
		if err != nil {
			return failure(err)
		}
		dto := api.FromInterval(result.Interval)
		return ApiResponse{Success: true, Interval: &dto}

	case len(req.Quarks) > 0:
		result, err := z.services.partial.Execute(service.PartialQuery{Time: req.Time, Quarks: req.Quarks})
		if err != nil {
			return failure(err)
		}
		byQuark := make(map[int]api.IntervalDTO, len(result.Intervals))
		for quark, interval := range result.Intervals {
			byQuark[quark] = api.FromInterval(interval)
		}
		return ApiResponse{Success: true, ByQuark: byQuark}

	default:
		result, err := z.services.full.Execute(service.FullQuery{Time: req.Time, NbAttributes: req.NbAttributes})
		if err != nil {
			return failure(err)
		}
		intervals := make([]*api.IntervalDTO, len(result.Intervals))
		for quark, interval := range result.Intervals {
			if interval != nil {
				dto := api.FromInterval(*interval)
				intervals[quark] = &dto
			}
		}
		return ApiResponse{Success: true, Intervals: intervals}
	}
}

func failure(err error) ApiResponse {
	return ApiResponse{Success: false, Error: err.Error()}
}

func (z *ZmqApi) send(response ApiResponse) {
	if err := z.socket.Send(z.marshal(response)); err != nil {
		z.logger.Warn("send failed", "error", err)
	}
}

func (z *ZmqApi) marshal(response ApiResponse) zmq4.Msg {
	payload, err := json.Marshal(response)
	if err != nil {
		z.logger.Error("marshal response failed", "error", err)
		payload = []byte(`{"success":false}`)
	}
	return zmq4.NewMsg(payload)
}

func (z *ZmqApi) Close() error {
	z.cancel()
	return z.socket.Close()
}
