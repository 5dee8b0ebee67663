package handler

import (
	"errors"
	"net/http"

	"github.com/synapsocial/synapsocial/internal/service"
	"github.com/synapsocial/synapsocial/internal/validation"
)

type AIHandler struct {
	generateService *service.GenerateService
}

func NewAIHandler(generateService *service.GenerateService) *AIHandler {
	return &AIHandler{generateService: generateService}
}

// Chat generates copy from a multipart form: message, platform and an optional file.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, validation.ChatConstraints.MaxSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		badRequest(w, "invalid form", err)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req := service.GenerateRequest{
		Message:  r.FormValue("message"),
		Platform: r.FormValue("platform"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		if err := validation.ValidateFile(header, validation.ChatConstraints); err != nil {
			badRequest(w, "invalid file", err)
			return
		}
		req.File = file
		req.Filename = header.Filename
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		badRequest(w, "invalid file", err)
		return
	}

	content, err := h.generateService.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, "AI error", err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}
