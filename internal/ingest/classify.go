// Package ingest stages uploaded files, extracts what a completion model can
// read from them and routes the result into a prompt.
package ingest

import (
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindPDF     Kind = "pdf"
	KindDoc     Kind = "doc"
	KindTxt     Kind = "txt"
	KindUnknown Kind = "unknown"
)

var kindByExt = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".avi":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".pdf":  KindPDF,
	".doc":  KindDoc,
	".docx": KindDoc,
	".txt":  KindTxt,
}

// Classify maps a filename to a Kind by its lower-cased extension.
func Classify(filename string) Kind {
	kind, ok := kindByExt[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return KindUnknown
	}
	return kind
}

// MimeType returns the mime type sent with inline image and video bytes.
// Images default to jpeg and videos to mp4; other kinds return "".
func MimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch Classify(filename) {
	case KindImage:
		switch ext {
		case ".png":
			return "image/png"
		case ".gif":
			return "image/gif"
		case ".webp":
			return "image/webp"
		}
		return "image/jpeg"
	case KindVideo:
		switch ext {
		case ".mov":
			return "video/quicktime"
		case ".webm":
			return "video/webm"
		}
		return "video/mp4"
	}
	return ""
}
