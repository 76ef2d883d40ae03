package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
	"github.com/rasheedharab/PayGuestMarketplace/internal/service"
)

// InventoryHandler Property / Room / Bed 管理 Handler
type InventoryHandler struct {
	svc    service.InventoryService
	logger *zap.Logger
}

func NewInventoryHandler(svc service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, logger: logger}
}

// ============================================
// Property
// ============================================

// ListProperties 公开房源列表
// query: city, category, minPrice, maxPrice, amenities (逗号分隔), search
func (h *InventoryHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PropertyFilter{
		City:      strings.TrimSpace(q.Get("city")),
		Category:  domain.PropertyCategory(strings.TrimSpace(q.Get("category"))),
		Amenities: splitList(q.Get("amenities")),
		Search:    strings.TrimSpace(q.Get("search")),
	}
	var err error
	if filter.MinPrice, err = parseInt64Param("minPrice", q.Get("minPrice")); err != nil {
		writeError(w, r, h.logger, "ListProperties", err)
		return
	}
	if filter.MaxPrice, err = parseInt64Param("maxPrice", q.Get("maxPrice")); err != nil {
		writeError(w, r, h.logger, "ListProperties", err)
		return
	}

	items, err := h.svc.ListProperties(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, "ListProperties", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *InventoryHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePropertyRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, "CreateProperty", err)
		return
	}
	p, err := h.svc.CreateProperty(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, "CreateProperty", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(p))
}

func (h *InventoryHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "GetProperty", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *InventoryHandler) ListOwnerProperties(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListOwnerProperties(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, "ListOwnerProperties", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *InventoryHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePropertyRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, "UpdateProperty", err)
		return
	}
	p, err := h.svc.UpdateProperty(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, "UpdateProperty", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *InventoryHandler) RetireProperty(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.RetireProperty(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "RetireProperty", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": ok}))
}

// ============================================
// Room
// ============================================

func (h *InventoryHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListRooms(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "ListRooms", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *InventoryHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoomRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, "CreateRoom", err)
		return
	}
	room, err := h.svc.CreateRoom(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, "CreateRoom", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(room))
}

func (h *InventoryHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.svc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "GetRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(room))
}

func (h *InventoryHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateRoomRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, "UpdateRoom", err)
		return
	}
	room, err := h.svc.UpdateRoom(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, "UpdateRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(room))
}

func (h *InventoryHandler) RetireRoom(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.RetireRoom(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "RetireRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": ok}))
}

func (h *InventoryHandler) GetRoomOccupancy(w http.ResponseWriter, r *http.Request) {
	occ, err := h.svc.GetRoomOccupancy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "GetRoomOccupancy", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(occ))
}

// ============================================
// Bed
// ============================================

func (h *InventoryHandler) ListBeds(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListBeds(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "ListBeds", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *InventoryHandler) ListAvailableBeds(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListAvailableBeds(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "ListAvailableBeds", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *InventoryHandler) CreateBed(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBedRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, "CreateBed", err)
		return
	}
	bed, err := h.svc.CreateBed(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, "CreateBed", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(bed))
}

func (h *InventoryHandler) UpdateBed(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBedRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, r, h.logger, "UpdateBed", err)
		return
	}
	bed, err := h.svc.UpdateBed(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, "UpdateBed", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(bed))
}
