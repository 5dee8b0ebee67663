package handler

import (
	"encoding/json"
	"net/http"

	"github.com/synapsocial/synapsocial/internal/ctxkeys"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/permission"
	"github.com/synapsocial/synapsocial/internal/service"
)

type PlatformHandler struct {
	accountService *service.AccountService
	gate           *permission.Gate
}

func NewPlatformHandler(accountService *service.AccountService, gate *permission.Gate) *PlatformHandler {
	return &PlatformHandler{accountService: accountService, gate: gate}
}

// Status lists every platform with its connection state and permission flags.
func (h *PlatformHandler) Status(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.accountService.Status(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "failed to load platform status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"platforms": statuses})
}

type permissionBody struct {
	Platform string        `json:"platform"`
	Feature  model.Feature `json:"feature"`
	Enabled  bool          `json:"enabled"`
}

// SetPermission flips one permission flag.
func (h *PlatformHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	var body permissionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body", err)
		return
	}

	p, err := model.ParsePlatform(body.Platform)
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	if err := h.gate.Set(r.Context(), ctxkeys.UserID(r.Context()), p, body.Feature, body.Enabled); err != nil {
		writeError(w, r, "failed to update permission", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Updated",
		"platform": p,
		"feature":  body.Feature,
		"enabled":  body.Enabled,
	})
}

// Disconnect clears the stored credentials for one platform. Permission flags are kept.
func (h *PlatformHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	if err := h.accountService.Disconnect(r.Context(), ctxkeys.UserID(r.Context()), p); err != nil {
		writeError(w, r, "failed to disconnect", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Disconnected"})
}
