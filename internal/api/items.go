package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/h-tadlaoui/nova-app/internal/auth"
	"github.com/h-tadlaoui/nova-app/internal/imaging"
	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

// browseLimit caps the public item listing.
const browseLimit = 200

// ItemsHandler handles item report endpoints.
type ItemsHandler struct {
	DB        *sql.DB
	Engine    *matching.Engine
	AutoMatch bool
}

type createItemRequest struct {
	Type         string `json:"type"          validate:"required,oneof=lost found anonymous"`
	Category     string `json:"category"      validate:"required,max=100"`
	Description  string `json:"description"   validate:"max=2000"`
	Brand        string `json:"brand"         validate:"max=100"`
	Color        string `json:"color"         validate:"max=50"`
	Location     string `json:"location"      validate:"required,max=255"`
	Date         string `json:"date"          validate:"required,datetime=2006-01-02"`
	Time         string `json:"time"          validate:"omitempty,datetime=15:04"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" validate:"max=32"`
}

type createItemResponse struct {
	*model.Item
	Matching      *matching.Result `json:"matching,omitempty"`
	MatchingError string           `json:"matching_error,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=matched recovered closed archived"`
	Reason string `json:"reason" validate:"max=500"`
}

// canManage reports whether the caller may see and change an item's
// private details.
func canManage(claims *auth.Claims, item *model.Item) bool {
	return item.OwnerID == claims.UserID || claims.Role == model.RoleAdmin
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, model.Item{
		OwnerID:      claims.UserID,
		Type:         req.Type,
		Category:     req.Category,
		Description:  req.Description,
		Brand:        req.Brand,
		Color:        req.Color,
		Location:     req.Location,
		Date:         req.Date,
		Time:         req.Time,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	logger(r).Info().Int64("item_id", item.ID).Str("type", item.Type).Msg("item reported")

	resp := createItemResponse{Item: item}
	if h.AutoMatch && h.Engine != nil && model.OppositeType(item.Type) != "" {
		result, err := h.Engine.TriggerMatching(r.Context(), matching.TriggerInput{
			ItemID:        item.ID,
			ItemType:      item.Type,
			RequesterID:   claims.UserID,
			RequesterRole: claims.Role,
		})
		if err != nil {
			logger(r).Warn().Err(err).Int64("item_id", item.ID).Msg("automatic matching failed")
			resp.MatchingError = "matching could not be completed, try again later"
		} else {
			resp.Matching = result
			if result.TotalFound > 0 {
				// Refresh so the response carries the matched status.
				if fresh, err := store.GetItem(r.Context(), h.DB, item.ID); err == nil && fresh != nil {
					resp.Item = fresh
				}
			}
		}
	}

	jsonResponse(w, http.StatusCreated, resp)
}

// List handles GET /api/items. It is the public browse view: only public
// fields are returned and the status defaults to active.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := itemFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if f.Status == "" {
		f.Status = model.ItemStatusActive
	}
	f.Limit = browseLimit

	items, err := store.QueryItems(r.Context(), h.DB, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]model.PublicItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.Public())
	}
	jsonResponse(w, http.StatusOK, out)
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	f, err := itemFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	f.OwnerID = GetClaims(r.Context()).UserID

	items, err := store.QueryItems(r.Context(), h.DB, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

func itemFilter(r *http.Request) (store.ItemFilter, error) {
	q := r.URL.Query()
	f := store.ItemFilter{
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}

	var errs []model.FieldError
	if f.Type != "" && !model.ValidItemType(f.Type) {
		errs = append(errs, model.FieldError{Field: "type", Message: "must be one of: lost found anonymous"})
	}
	if f.Status != "" && !model.ValidItemStatus(f.Status) {
		errs = append(errs, model.FieldError{Field: "status", Message: "must be one of: active matched recovered closed archived"})
	}
	if len(errs) > 0 {
		return f, &model.ValidationError{Errors: errs}
	}
	return f, nil
}

// loadItem fetches the {id} item. It writes the error response and
// returns nil when the item cannot be served.
func (h *ItemsHandler) loadItem(w http.ResponseWriter, r *http.Request) *model.Item {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return nil
	}
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// loadManagedItem is loadItem restricted to the owner and admins. Other
// callers get a 404 so the item's existence is not revealed.
func (h *ItemsHandler) loadManagedItem(w http.ResponseWriter, r *http.Request) *model.Item {
	item := h.loadItem(w, r)
	if item == nil {
		return nil
	}
	if !canManage(GetClaims(r.Context()), item) {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item := h.loadItem(w, r)
	if item == nil {
		return
	}
	if canManage(GetClaims(r.Context()), item) {
		jsonResponse(w, http.StatusOK, item)
		return
	}
	jsonResponse(w, http.StatusOK, item.Public())
}

// UpdateStatus handles PATCH /api/items/{id}/status.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	item := h.loadManagedItem(w, r)
	if item == nil {
		return
	}

	var req updateStatusRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if req.Status == model.ItemStatusMatched {
		writeServiceError(w, r, model.NewValidationError("status", "matched is set by matching and cannot be requested"))
		return
	}
	if req.Status == model.ItemStatusArchived && claims.Role != model.RoleAdmin {
		jsonError(w, http.StatusForbidden, "only admins can archive items")
		return
	}
	if !model.CanTransition(item.Status, req.Status) {
		jsonError(w, http.StatusConflict, "cannot change status from "+item.Status+" to "+req.Status)
		return
	}

	changed, err := store.UpdateItemStatus(r.Context(), h.DB, item.ID, item.Status, req.Status, req.Reason, &claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !changed {
		jsonError(w, http.StatusConflict, "item status changed concurrently, reload and retry")
		return
	}

	logger(r).Info().
		Int64("item_id", item.ID).
		Str("from", item.Status).
		Str("to", req.Status).
		Msg("item status changed")

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// UploadImage handles PUT /api/items/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item := h.loadManagedItem(w, r)
	if item == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, photo.Data, photo.Thumbnail, photo.MIME); err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger(r).Info().Int64("item_id", item.ID).Int("bytes", len(photo.Data)).Msg("item image uploaded")
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetImage handles GET /api/items/{id}/image. ?size=thumb returns the
// thumbnail. Photos of anonymous reports are only served to the owner.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	item := h.loadItem(w, r)
	if item == nil {
		return
	}
	if item.Type == model.ItemTypeAnonymous && !canManage(GetClaims(r.Context()), item) {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, item.ID, r.URL.Query().Get("size") == "thumb")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// GetHistory handles GET /api/items/{id}/history.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	item := h.loadManagedItem(w, r)
	if item == nil {
		return
	}

	history, err := store.GetItemHistory(r.Context(), h.DB, item.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []model.StatusChange{}
	}
	jsonResponse(w, http.StatusOK, history)
}
