package handler

import (
	"encoding/json"
	"net/http"

	"github.com/synapsocial/synapsocial/internal/ctxkeys"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/service"
)

type EngagementHandler struct {
	engagementService *service.EngagementService
}

func NewEngagementHandler(engagementService *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// Comments lists comments on recent posts that can still receive a reply.
func (h *EngagementHandler) Comments(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	items, err := h.engagementService.EligibleComments(r.Context(), ctxkeys.UserID(r.Context()), p)
	if err != nil {
		writeError(w, r, "failed to load comments", err)
		return
	}
	if items == nil {
		items = []model.EngagementItem{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": items})
}

// Suggest drafts a reply to one comment.
func (h *EngagementHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	var item model.EngagementItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		badRequest(w, "invalid JSON body", err)
		return
	}
	if item.ID == "" {
		badRequest(w, "comment id is required", nil)
		return
	}

	decision, err := h.engagementService.SuggestReply(r.Context(), ctxkeys.UserID(r.Context()), p, item)
	if err != nil {
		writeError(w, r, "failed to suggest reply", err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

type replyBody struct {
	Decision     model.ReplyDecision `json:"decision"`
	Confirmed    bool                `json:"confirmed"`
	DontAskAgain bool                `json:"dontAskAgain"`
}

// Reply posts or drops a suggested reply.
func (h *EngagementHandler) Reply(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	var body replyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body", err)
		return
	}
	body.Decision.Item.Platform = p

	decision, err := h.engagementService.ConfirmReply(r.Context(), ctxkeys.UserID(r.Context()), p, body.Decision, body.Confirmed, body.DontAskAgain)
	if err != nil {
		writeError(w, r, "failed to reply", err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}
