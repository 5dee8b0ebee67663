package handler

import (
	"encoding/json"
	"net/http"

	"github.com/synapsocial/synapsocial/internal/ctxkeys"
	"github.com/synapsocial/synapsocial/internal/ingest"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/service"
	"github.com/synapsocial/synapsocial/internal/validation"
)

type PublishHandler struct {
	publishService *service.PublishService
	uploadDir      string
}

func NewPublishHandler(publishService *service.PublishService, uploadDir string) *PublishHandler {
	return &PublishHandler{publishService: publishService, uploadDir: uploadDir}
}

type publishBody struct {
	Content       string   `json:"content"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	MediaBase64   string   `json:"mediaBase64"`
	MediaMimeType string   `json:"mediaMimeType"`
	MediaName     string   `json:"mediaName"`
	MediaURL      string   `json:"mediaUrl"`
}

type publishResponse struct {
	Message string   `json:"message"`
	JobID   string   `json:"jobId"`
	PostID  string   `json:"postId,omitempty"`
	URL     string   `json:"url,omitempty"`
	Trace   []string `json:"trace"`
}

// Publish posts JSON content with optional base64 media or a public media URL.
func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, validation.VideoConstraints.MaxSize*2)
	var body publishBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body", err)
		return
	}

	var media *model.Media
	switch {
	case body.MediaBase64 != "":
		media, err = model.DecodeMedia(body.MediaBase64, body.MediaMimeType, body.MediaName)
		if err != nil {
			badRequest(w, "invalid media", err)
			return
		}
		if media.MimeType == "" {
			media.MimeType = ingest.MimeType(body.MediaName)
		}
		media.URL = body.MediaURL
	case body.MediaURL != "":
		media = &model.Media{Filename: body.MediaName, MimeType: body.MediaMimeType, URL: body.MediaURL}
		if media.MimeType == "" {
			media.MimeType = ingest.MimeType(body.MediaURL)
		}
	}

	if err := validation.ValidatePostText(string(p), body.Content, media != nil); err != nil {
		badRequest(w, "invalid content", err)
		return
	}

	h.publish(w, r, p, service.PublishRequest{
		Text:        body.Content,
		Title:       body.Title,
		Description: body.Description,
		Tags:        body.Tags,
		Media:       media,
	})
}

// Upload posts a multipart form whose file is streamed to disk first.
// Used for videos too large to send as base64.
func (h *PublishHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, err := model.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		badRequest(w, "unknown platform", err)
		return
	}

	constraints := validation.MediaConstraints(string(p))
	r.Body = http.MaxBytesReader(w, r.Body, maxSize(constraints)+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequest(w, "invalid form", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required", err)
		return
	}
	defer func() { _ = file.Close() }()

	if err := validation.ValidateFile(header, constraints...); err != nil {
		badRequest(w, "invalid file", err)
		return
	}

	asset, err := ingest.Stage(h.uploadDir, header.Filename, file)
	if err != nil {
		writeError(w, r, "upload failed", err)
		return
	}
	defer func() { _ = asset.Release() }()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = ingest.MimeType(header.Filename)
	}

	content := r.FormValue("content")
	if err := validation.ValidatePostText(string(p), content, true); err != nil {
		badRequest(w, "invalid content", err)
		return
	}

	h.publish(w, r, p, service.PublishRequest{
		Text:        content,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.Form["tags"],
		Media:       &model.Media{Filename: header.Filename, MimeType: mimeType, Path: asset.Path},
	})
}

func (h *PublishHandler) publish(w http.ResponseWriter, r *http.Request, p model.Platform, req service.PublishRequest) {
	userID := ctxkeys.UserID(r.Context())

	job, err := h.publishService.Publish(r.Context(), userID, p, req, model.OriginInteractive)
	if err != nil {
		writeError(w, r, p.String()+" post failed", err)
		return
	}

	writeJSON(w, http.StatusOK, publishResponse{
		Message: "Posted to " + displayName(p) + "!",
		JobID:   job.ID,
		PostID:  job.PostID,
		URL:     job.URL,
		Trace:   job.Trace,
	})
}

func maxSize(constraints []validation.FileConstraints) int64 {
	var limit int64
	for _, c := range constraints {
		limit = max(limit, c.MaxSize)
	}
	return limit
}

func displayName(p model.Platform) string {
	switch p {
	case model.PlatformLinkedIn:
		return "LinkedIn"
	case model.PlatformInstagram:
		return "Instagram"
	case model.PlatformYouTube:
		return "YouTube"
	}
	return p.String()
}

