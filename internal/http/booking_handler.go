package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/service"
	"github.com/rasheedharab/PayGuestMarketplace/internal/store"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// BookingHandler 预订 Handler
// POST 支持 Idempotency-Key：同一调用方 + key 在 TTL 内重复提交返回首次创建的 booking
type BookingHandler struct {
	svc     service.BookingService
	kv      store.KV
	idemTTL time.Duration
	logger  *zap.Logger
}

func NewBookingHandler(svc service.BookingService, kv store.KV, idemTTL time.Duration, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, kv: kv, idemTTL: idemTTL, logger: logger}
}

// createBookingBody 日期接受 RFC3339 或 YYYY-MM-DD
type createBookingBody struct {
	PropertyID  string  `json:"property_id"`
	RoomID      string  `json:"room_id"`
	BedID       *string `json:"bed_id"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	MonthlyRent *int64  `json:"monthly_rent"`
	Deposit     *int64  `json:"deposit"`
	Notes       string  `json:"notes"`
}

func (b *createBookingBody) toRequest() (service.CreateBookingRequest, error) {
	req := service.CreateBookingRequest{
		PropertyID:  b.PropertyID,
		RoomID:      b.RoomID,
		BedID:       b.BedID,
		MonthlyRent: b.MonthlyRent,
		Deposit:     b.Deposit,
		Notes:       b.Notes,
	}
	if strings.TrimSpace(b.StartDate) != "" {
		start, err := parseDate("start_date", b.StartDate)
		if err != nil {
			return req, err
		}
		req.StartDate = start
	}
	end, err := parseDatePtr("end_date", b.EndDate)
	if err != nil {
		return req, err
	}
	req.EndDate = end
	return req, nil
}

type updateBookingBody struct {
	Status    *string `json:"status"`
	Notes     *string `json:"notes"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	BedID     *string `json:"bed_id"`
	Close     bool    `json:"close"`
}

func (b *updateBookingBody) toRequest() (service.UpdateBookingRequest, error) {
	req := service.UpdateBookingRequest{Notes: b.Notes, BedID: b.BedID, Close: b.Close}
	if b.Status != nil {
		s, err := domain.ParseBookingStatus(strings.TrimSpace(*b.Status))
		if err != nil {
			return req, err
		}
		req.Status = &s
	}
	var err error
	if req.StartDate, err = parseDatePtr("start_date", b.StartDate); err != nil {
		return req, err
	}
	if req.EndDate, err = parseDatePtr("end_date", b.EndDate); err != nil {
		return req, err
	}
	return req, nil
}

// ListBookings query: propertyId, status
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListBookingsRequest{
		PropertyID: strings.TrimSpace(q.Get("propertyId")),
		Status:     domain.BookingStatus(strings.TrimSpace(q.Get("status"))),
	}
	items, err := h.svc.ListBookings(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, "ListBookings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := callerFrom(ctx)

	var body createBookingBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, r, h.logger, "CreateBooking", err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, h.logger, "CreateBooking", err)
		return
	}

	idemKey := ""
	if k := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)); k != "" && caller.ID != "" && h.kv != nil {
		idemKey = "payguest:idem:booking:" + caller.ID + ":" + k
		if bookingID, err := h.kv.Get(ctx, idemKey); err == nil {
			b, err := h.svc.GetBooking(ctx, caller, bookingID)
			if err != nil {
				writeError(w, r, h.logger, "CreateBooking", err)
				return
			}
			writeJSON(w, http.StatusOK, Ok(b))
			return
		} else if !errors.Is(err, store.ErrMiss) {
			h.logger.Warn("Idempotency lookup failed", zap.String("key", idemKey), zap.Error(err))
		}
	}

	b, err := h.svc.CreateBooking(ctx, caller, req)
	if err != nil {
		writeError(w, r, h.logger, "CreateBooking", err)
		return
	}
	if idemKey != "" {
		if err := h.kv.Set(ctx, idemKey, b.BookingID, h.idemTTL); err != nil {
			h.logger.Warn("Idempotency record failed", zap.String("key", idemKey), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, Ok(b))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBooking(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "GetBooking", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(b))
}

// UpdateBooking 字段编辑与状态迁移（status）
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var body updateBookingBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, r, h.logger, "UpdateBooking", err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, h.logger, "UpdateBooking", err)
		return
	}
	b, err := h.svc.UpdateBooking(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, "UpdateBooking", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(b))
}
