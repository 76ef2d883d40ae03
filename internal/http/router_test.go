package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
	"github.com/rasheedharab/PayGuestMarketplace/internal/service"
	"github.com/rasheedharab/PayGuestMarketplace/internal/store"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	st := repository.NewMemoryStore(2 * time.Second)
	resolver := service.NewOwnershipResolver(logger)
	pub := events.NopPublisher{}
	inv := NewInventoryHandler(service.NewInventoryService(st, resolver, pub, logger), logger)
	bk := NewBookingHandler(service.NewBookingService(st, resolver, pub, logger), store.NewMemoryKV(), time.Hour, logger)
	an := NewAnalyticsHandler(service.NewAnalyticsService(st, logger), logger)
	return &testAPI{t: t, handler: NewRouter(inv, bk, an, logger)}
}

func (a *testAPI) do(method, path string, caller domain.Caller, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller.ID != "" {
		req.Header.Set(HeaderUserID, caller.ID)
		req.Header.Set(HeaderUserRole, string(caller.Role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// decode 解析 Result 信封里的 result 字段
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var res Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res.Result
}

var (
	owner    = domain.Caller{ID: "owner-1", Role: domain.RoleOwner}
	intruder = domain.Caller{ID: "owner-2", Role: domain.RoleOwner}
	guest    = domain.Caller{ID: "guest-1", Role: domain.RoleCustomer}
)

func (a *testAPI) seed() (propertyID, roomID string, bedIDs []string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/properties", owner, map[string]any{
		"name": "Green Nest PG", "address": "12 MG Road", "city": "Bengaluru", "state": "KA",
		"postal_code": "560001", "category": "hostel", "amenities": []string{"WiFi"},
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[domain.Property](a.t, rec)

	rec = a.do(http.MethodPost, "/api/properties/"+p.PropertyID+"/rooms", owner, map[string]any{
		"category": "double", "capacity": 2, "price_per_bed": 800000, "deposit": 1600000,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	room := decode[domain.Room](a.t, rec)

	for _, label := range []string{"A", "B"} {
		rec = a.do(http.MethodPost, "/api/rooms/"+room.RoomID+"/beds", owner, map[string]any{"label": label})
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
		bedIDs = append(bedIDs, decode[domain.Bed](a.t, rec).BedID)
	}
	return p.PropertyID, room.RoomID, bedIDs
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/health", domain.Caller{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestBookingFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	propertyID, roomID, beds := api.seed()

	rec := api.do(http.MethodPost, "/api/bookings", guest, map[string]any{
		"property_id": propertyID, "room_id": roomID, "bed_id": beds[0], "start_date": "2020-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decode[domain.Booking](t, rec)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, int64(800000), b.MonthlyRent)

	rec = api.do(http.MethodPut, "/api/bookings/"+b.BookingID, intruder, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPut, "/api/bookings/"+b.BookingID, owner, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPut, "/api/bookings/"+b.BookingID, owner, map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/rooms/"+roomID+"/available-beds", domain.Caller{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	avail := decode[struct {
		Items []domain.Bed `json:"items"`
	}](t, rec)
	require.Len(t, avail.Items, 1)
	assert.Equal(t, beds[1], avail.Items[0].BedID)

	rec = api.do(http.MethodPost, "/api/bookings", guest, map[string]any{
		"property_id": propertyID, "room_id": roomID, "bed_id": beds[0], "start_date": "2020-01-01",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPut, "/api/bookings/"+b.BookingID, owner, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/analytics/owner-stats", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var raw struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, float64(2), raw.Result["totalBeds"])
	assert.Equal(t, float64(1), raw.Result["occupiedBeds"])
	assert.Equal(t, float64(800000), raw.Result["monthlyRevenue"])
	assert.Equal(t, float64(0), raw.Result["pendingBookings"])

	rec = api.do(http.MethodPut, "/api/bookings/"+b.BookingID, owner, map[string]any{"status": "completed", "close": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[domain.Booking](t, rec)
	assert.Equal(t, domain.BookingCompleted, done.Status)
	assert.NotNil(t, done.EndDate)
}

func TestCreateBooking_IdempotencyKey(t *testing.T) {
	api := newTestAPI(t)
	propertyID, roomID, _ := api.seed()
	body := map[string]any{"property_id": propertyID, "room_id": roomID, "start_date": "2020-01-01T00:00:00Z"}

	first := api.do(http.MethodPost, "/api/bookings", guest, body, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := api.do(http.MethodPost, "/api/bookings", guest, body, HeaderIdempotencyKey, "abc")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.Equal(t, decode[domain.Booking](t, first).BookingID, decode[domain.Booking](t, second).BookingID)

	third := api.do(http.MethodPost, "/api/bookings", guest, body, HeaderIdempotencyKey, "def")
	require.Equal(t, http.StatusCreated, third.Code)

	rec := api.do(http.MethodGet, "/api/bookings", guest, nil)
	list := decode[struct {
		Total int `json:"total"`
	}](t, rec)
	assert.Equal(t, 2, list.Total)
}

func TestErrorStatusMapping(t *testing.T) {
	api := newTestAPI(t)
	propertyID, roomID, _ := api.seed()

	cases := []struct {
		name   string
		method string
		path   string
		caller domain.Caller
		body   any
		status int
	}{
		{"unknown property", http.MethodGet, "/api/properties/missing", domain.Caller{}, nil, http.StatusNotFound},
		{"anonymous create", http.MethodPost, "/api/properties", domain.Caller{}, map[string]any{}, http.StatusUnauthorized},
		{"customer create", http.MethodPost, "/api/properties", guest, map[string]any{}, http.StatusForbidden},
		{"invalid body", http.MethodPost, "/api/properties", owner, map[string]any{"name": ""}, http.StatusBadRequest},
		{"bad price filter", http.MethodGet, "/api/properties?minPrice=cheap", domain.Caller{}, nil, http.StatusBadRequest},
		{"min above max", http.MethodGet, "/api/properties?minPrice=10&maxPrice=5", domain.Caller{}, nil, http.StatusBadRequest},
		{"unknown booking status", http.MethodPut, "/api/bookings/x", owner, map[string]any{"status": "archived"}, http.StatusBadRequest},
		{"bad start date", http.MethodPost, "/api/bookings", guest, map[string]any{"property_id": propertyID, "room_id": roomID, "start_date": "01/02/2026"}, http.StatusBadRequest},
		{"duplicate bed label", http.MethodPost, "/api/rooms/" + roomID + "/beds", owner, map[string]any{"label": "A"}, http.StatusConflict},
		{"stats as customer", http.MethodGet, "/api/analytics/owner-stats", guest, nil, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nope", domain.Caller{}, nil, http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/properties", owner, nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(tc.method, tc.path, tc.caller, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			var res Result[any]
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, ResultError, res.Code)
		})
	}
}

func TestPropertyListingFilters(t *testing.T) {
	api := newTestAPI(t)
	propertyID, _, _ := api.seed()

	rec := api.do(http.MethodGet, "/api/properties?city=benga&amenities=wifi&minPrice=500000&maxPrice=900000", domain.Caller{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []domain.Property `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, propertyID, list.Items[0].PropertyID)

	rec = api.do(http.MethodGet, "/api/properties?amenities=wifi,gym", domain.Caller{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct {
		Items []domain.Property `json:"items"`
	}](t, rec).Items)

	rec = api.do(http.MethodDelete, "/api/properties/"+propertyID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodDelete, "/api/properties/"+propertyID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, "retire is idempotent")

	rec = api.do(http.MethodGet, "/api/properties", domain.Caller{}, nil)
	assert.Empty(t, decode[struct {
		Items []domain.Property `json:"items"`
	}](t, rec).Items)
}

func TestOwnerReportDownload(t *testing.T) {
	api := newTestAPI(t)
	api.seed()

	rec := api.do(http.MethodGet, "/api/analytics/owner-report.xlsx", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "owner-report.xlsx")
	// xlsx is a zip container
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestStatusForError(t *testing.T) {
	known := domain.Caller{ID: "u", Role: domain.RoleCustomer}
	cases := map[error]int{
		domain.ErrNotFound:          http.StatusNotFound,
		domain.ErrUnauthorized:      http.StatusForbidden,
		domain.ErrConflict:          http.StatusConflict,
		domain.ErrValidation:        http.StatusBadRequest,
		domain.ErrInvalidTransition: http.StatusUnprocessableEntity,
		domain.ErrTimeout:           http.StatusGatewayTimeout,
		domain.ErrIntegrity:         http.StatusInternalServerError,
		errors.New("boom"):          http.StatusInternalServerError,
	}
	for err, want := range cases {
		wrapped := fmt.Errorf("%w: context", err)
		assert.Equal(t, want, statusForError(wrapped, known), err.Error())
	}
	assert.Equal(t, http.StatusUnauthorized, statusForError(domain.ErrUnauthorized, domain.Caller{}))
}
