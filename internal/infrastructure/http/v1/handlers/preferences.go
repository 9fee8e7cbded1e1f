package handlers

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/domain/preferences"
	"staffdesk/internal/metadata"
)

// PreferencesHandler stores per-user UI state.
type PreferencesHandler struct {
	*BaseHandler
	store    preferences.Store
	registry *metadata.Registry
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(base *BaseHandler, store preferences.Store, registry *metadata.Registry) *PreferencesHandler {
	return &PreferencesHandler{BaseHandler: base, store: store, registry: registry}
}

// PreferenceResponse is the stored value of one key.
type PreferenceResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Found bool            `json:"found"`
}

func (h *PreferencesHandler) user(c *gin.Context) (string, bool) {
	userID := h.GetUserID(c)
	if userID == "" {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return "", false
	}
	return userID, true
}

// Get handles GET /preferences/:key.
func (h *PreferencesHandler) Get(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	key := c.Param("key")
	if err := preferences.ValidateKey(key); err != nil {
		h.Error(c, err)
		return
	}

	value, found, err := h.store.Get(c.Request.Context(), userID, key)
	if err != nil {
		h.Error(c, apperror.NewUnavailable("preferences", err))
		return
	}
	if !found {
		value = json.RawMessage("null")
	}
	h.OK(c, PreferenceResponse{Key: key, Value: value, Found: found})
}

// Put handles PUT /preferences/:key. The body is the raw JSON value.
func (h *PreferencesHandler) Put(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	key := c.Param("key")
	if err := preferences.ValidateKey(key); err != nil {
		h.Error(c, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, preferences.MaxValueSize+1))
	if err != nil {
		h.Error(c, apperror.NewValidation("unreadable body"))
		return
	}
	if err := preferences.ValidateValue(body); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.store.Set(c.Request.Context(), userID, key, body); err != nil {
		h.Error(c, apperror.NewUnavailable("preferences", err))
		return
	}
	h.NoContent(c)
}

// View handles GET /preferences/views/:entity. It returns the saved view of
// the entity list together with the search request built from it.
func (h *PreferencesHandler) View(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	name := c.Param("entity")
	def, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("entity", name))
		return
	}

	session := preferences.NewSession(h.store, userID)
	view, err := session.LoadView(c.Request.Context(), name)
	if err != nil {
		h.Error(c, apperror.NewUnavailable("preferences", err))
		return
	}
	h.OK(c, gin.H{
		"view":    view,
		"request": view.Request(def.Schema().SearchableFields()),
	})
}
