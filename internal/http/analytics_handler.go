package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsHandler struct {
	svc    service.AnalyticsService
	logger *zap.Logger
}

func NewAnalyticsHandler(svc service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

func (h *AnalyticsHandler) GetOwnerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetOwnerStats(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, "GetOwnerStats", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// ExportOwnerReport 下载业主报表 xlsx
func (h *AnalyticsHandler) ExportOwnerReport(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportOwnerReport(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, "ExportOwnerReport", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="owner-report.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
