package model

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// Media is an attachment handed to a publish job.
// Bytes come from Data or from the file at Path; URL is a publicly reachable copy.
type Media struct {
	Filename string
	MimeType string
	Data     []byte
	Path     string
	URL      string
}

func (m *Media) IsVideo() bool {
	return m != nil && strings.HasPrefix(m.MimeType, "video/")
}

func (m *Media) HasBytes() bool {
	return m != nil && (len(m.Data) > 0 || m.Path != "")
}

// Open returns a stream over the media bytes. The caller closes it.
func (m *Media) Open() (io.ReadCloser, error) {
	switch {
	case m == nil:
		return nil, fmt.Errorf("no media")
	case m.Path != "":
		return os.Open(m.Path)
	case len(m.Data) > 0:
		return io.NopCloser(bytes.NewReader(m.Data)), nil
	}
	return nil, fmt.Errorf("media %q has no content", m.Filename)
}

// Bytes reads the whole payload into memory.
func (m *Media) Bytes() ([]byte, error) {
	if m != nil && len(m.Data) > 0 {
		return m.Data, nil
	}
	rc, err := m.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// DecodeMedia accepts raw base64 or a data URL ("data:image/png;base64,...").
// A mime type embedded in the data URL wins over an empty mimeType.
func DecodeMedia(encoded, mimeType, filename string) (*Media, error) {
	payload := encoded
	if idx := strings.Index(encoded, ";base64,"); idx != -1 {
		payload = encoded[idx+len(";base64,"):]
		if mimeType == "" {
			mimeType = strings.TrimPrefix(encoded[:idx], "data:")
		}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("decode media: empty payload")
	}
	return &Media{Filename: filename, MimeType: mimeType, Data: data}, nil
}
