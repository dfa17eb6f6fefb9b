package history

import (
	"HistoryDB/internal/application/service"
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/api"
	"HistoryDB/internal/platform/utils"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
)

type HistoryHandler struct {
	insertService   *service.InsertStateService
	finishService   *service.FinishBuildingService
	singularService *service.SingularQueryService
	fullService     *service.FullQueryService
	partialService  *service.PartialQueryService
	boundsService   *service.BoundsService
	logger          *slog.Logger
}

func NewHistoryHandler(insertService *service.InsertStateService,
	finishService *service.FinishBuildingService,
	singularService *service.SingularQueryService,
	fullService *service.FullQueryService,
	partialService *service.PartialQueryService,
	boundsService *service.BoundsService,
	logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		insertService:   insertService,
		finishService:   finishService,
		singularService: singularService,
		fullService:     fullService,
		partialService:  partialService,
		boundsService:   boundsService,
		logger:          logger.With("handler", "history"),
	}
}

func (h *HistoryHandler) Bounds(w http.ResponseWriter, r *http.Request) {
	result := h.boundsService.Execute()
	h.writeJSON(w, http.StatusOK, api.BoundsResponse{
		SSID:      result.SSID,
		StartTime: result.StartTime,
		EndTime:   result.EndTime,
	})
}

func (h *HistoryHandler) SingularQuery(w http.ResponseWriter, r *http.Request) {
	quark, err := strconv.Atoi(chi.URLParam(r, "quark"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid quark: %w", err))
		return
	}
	t, err := timeParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.singularService.Execute(service.SingularQuery{Time: t, Quark: quark})
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.IntervalResponse{Interval: api.FromInterval(result.Interval)})
}

// Query runs a partial query when quarks are given, a full query over
// nb_attributes slots otherwise.
func (h *HistoryHandler) Query(w http.ResponseWriter, r *http.Request) {
	t, err := timeParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if raw := r.URL.Query().Get("quarks"); raw != "" {
		quarks, err := parseQuarks(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		result, err := h.partialService.Execute(service.PartialQuery{Time: t, Quarks: quarks})
		if err != nil {
			h.writeError(w, statusFor(err), err)
			return
		}
		byQuark := make(map[int]api.IntervalDTO, len(result.Intervals))
		for quark, interval := range result.Intervals {
			byQuark[quark] = api.FromInterval(interval)
		}
		h.writeJSON(w, http.StatusOK, api.QueryResponse{Time: t, ByQuark: byQuark})
		return
	}

	nbAttributes, err := strconv.Atoi(r.URL.Query().Get("nb_attributes"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("quarks or nb_attributes required: %w", err))
		return
	}
	result, err := h.fullService.Execute(service.FullQuery{Time: t, NbAttributes: nbAttributes})
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	intervals := make([]*api.IntervalDTO, len(result.Intervals))
	for quark, interval := range result.Intervals {
		if interval != nil {
			dto := api.FromInterval(*interval)
			intervals[quark] = &dto
		}
	}
	h.writeJSON(w, http.StatusOK, api.QueryResponse{Time: t, Intervals: intervals})
}

func (h *HistoryHandler) InsertIntervals(w http.ResponseWriter, r *http.Request) {
	var request api.InsertRequest
	if err := decode(r, &request); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	intervals, err := api.ToIntervals(request.Intervals)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.insertService.Execute(service.InsertStateCommand{Intervals: intervals})
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.InsertResponse{Inserted: result.Inserted, EndTime: result.EndTime})
}

func (h *HistoryHandler) FinishBuilding(w http.ResponseWriter, r *http.Request) {
	var request api.FinishRequest
	if err := decode(r, &request); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.finishService.Execute(service.FinishBuildingCommand{EndTime: request.EndTime})
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.BoundsResponse{
		SSID:      h.boundsService.Execute().SSID,
		StartTime: result.StartTime,
		EndTime:   result.EndTime,
	})
}

func timeParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("t")
	t, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	return t, nil
}

func parseQuarks(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	quarks := make([]int, 0, len(parts))
	for _, p := range parts {
		quark, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid quark %q", p)
		}
		quarks = append(quarks, quark)
	}
	return quarks, nil
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// statusFor maps history errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAttributeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTimeRange):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, domain.ErrBackendFinished):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBackendDisposed):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrStateValueType), errors.Is(err, domain.ErrInvalidQuark),
		errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrIntervalTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (h *HistoryHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	output, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal response failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(output)
}

func (h *HistoryHandler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}
