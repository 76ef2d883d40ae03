package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter 注册全部 /api 路由
func NewRouter(inv *InventoryHandler, bookings *BookingHandler, analytics *AnalyticsHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, RequestLogger(logger), middleware.Recoverer, CallerMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, Fail("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
		})

		// properties
		r.Get("/properties", inv.ListProperties)
		r.Post("/properties", inv.CreateProperty)
		r.Get("/my-properties", inv.ListOwnerProperties)
		r.Route("/properties/{id}", func(r chi.Router) {
			r.Get("/", inv.GetProperty)
			r.Put("/", inv.UpdateProperty)
			r.Delete("/", inv.RetireProperty)
			r.Get("/rooms", inv.ListRooms)
			r.Post("/rooms", inv.CreateRoom)
		})

		// rooms / beds
		r.Route("/rooms/{id}", func(r chi.Router) {
			r.Get("/", inv.GetRoom)
			r.Put("/", inv.UpdateRoom)
			r.Delete("/", inv.RetireRoom)
			r.Get("/occupancy", inv.GetRoomOccupancy)
			r.Get("/beds", inv.ListBeds)
			r.Get("/available-beds", inv.ListAvailableBeds)
			r.Post("/beds", inv.CreateBed)
		})
		r.Put("/beds/{id}", inv.UpdateBed)

		// bookings
		r.Get("/bookings", bookings.ListBookings)
		r.Post("/bookings", bookings.CreateBooking)
		r.Get("/bookings/{id}", bookings.GetBooking)
		r.Put("/bookings/{id}", bookings.UpdateBooking)

		// analytics
		r.Get("/analytics/owner-stats", analytics.GetOwnerStats)
		r.Get("/analytics/owner-report.xlsx", analytics.ExportOwnerReport)
	})
	return r
}
