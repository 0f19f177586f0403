package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/export"
)

type KPIHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type kpiHandlerImpl struct {
	kpiService kpi.KPIService
	now        func() time.Time
}

func NewKPIHandler(kpiService kpi.KPIService) KPIHandler {
	return &kpiHandlerImpl{
		kpiService: kpiService,
		now:        time.Now,
	}
}

// Get implements KPIHandler.
func (h *kpiHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}
	response.Success(w, result)
}

// Export implements KPIHandler.
func (h *kpiHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteKPIWorkbook(&buf, result, h.now()); err != nil {
		slog.Error("Failed to render KPI workbook", "error", err)
		response.InternalServerError(w, "Failed to generate export")
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.KPIFilename(result)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write KPI workbook", "error", err)
	}
}

func (h *kpiHandlerImpl) compute(w http.ResponseWriter, r *http.Request) (kpi.Response, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrUnauthorized)
		return kpi.Response{}, false
	}

	q := parseKPIQuery(r)
	result, err := h.kpiService.GetKPI(r.Context(), caller, q, h.now())
	if err != nil {
		response.HandleError(w, err)
		return kpi.Response{}, false
	}
	return result, true
}

func parseKPIQuery(r *http.Request) kpi.Query {
	query := r.URL.Query()
	q := kpi.Query{
		Period:     query.Get("period"),
		Scope:      query.Get("scope"),
		Department: query.Get("department"),
		UserID:     query.Get("userId"),
		StartDate:  query.Get("start"),
		EndDate:    query.Get("end"),
	}
	if q.UserID == "" {
		q.UserID = query.Get("user_id")
	}
	return q
}
