package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxInlineVideo is the size below which a video is sent to the model as bytes.
	MaxInlineVideo = 10 << 20

	// MaxExtractedRunes bounds document text placed in a prompt.
	MaxExtractedRunes = 3000
)

// Payload is what a completion model gets to see of an asset.
type Payload struct {
	Kind     Kind
	Filename string
	Inline   bool   // Data carries image or video bytes
	Data     []byte // inline bytes
	MimeType string
	Text     string // extracted document text or a placeholder
	Document bool   // Text came from the document itself
	Degraded bool   // extraction failed and Text is a placeholder
}

// Extract reads the staged asset. It never fails: unreadable content degrades to a placeholder.
func Extract(asset *Asset) Payload {
	if asset == nil {
		return Payload{Kind: KindUnknown}
	}

	p := Payload{Kind: asset.Kind, Filename: asset.Filename}
	log := slog.With("file", asset.Filename, "kind", asset.Kind)

	switch asset.Kind {
	case KindImage:
		data, err := os.ReadFile(asset.Path)
		if err != nil {
			log.Warn("image unreadable", "error", err)
			return placeholder(p, "File: "+asset.Filename)
		}
		p.Inline, p.Data, p.MimeType = true, data, MimeType(asset.Filename)

	case KindVideo:
		if asset.Size >= MaxInlineVideo {
			p.Text = fmt.Sprintf("Video: %s (%.2fMB)", asset.Filename, float64(asset.Size)/(1<<20))
			return p
		}
		data, err := os.ReadFile(asset.Path)
		if err != nil {
			log.Warn("video unreadable", "error", err)
			return placeholder(p, "File: "+asset.Filename)
		}
		p.Inline, p.Data, p.MimeType = true, data, MimeType(asset.Filename)

	case KindPDF:
		text, err := pdfText(asset.Path)
		if err != nil {
			log.Warn("pdf extraction failed", "error", err)
			return placeholder(p, "PDF: "+asset.Filename)
		}
		p.Text, p.Document = truncate(text, MaxExtractedRunes), true

	case KindDoc:
		text, err := docxText(asset.Path)
		if err != nil {
			log.Warn("document extraction failed", "error", err)
			return placeholder(p, "Document: "+asset.Filename)
		}
		p.Text, p.Document = truncate(text, MaxExtractedRunes), true

	case KindTxt:
		data, err := os.ReadFile(asset.Path)
		if err != nil {
			log.Warn("text file unreadable", "error", err)
			return placeholder(p, "File: "+asset.Filename)
		}
		p.Text, p.Document = truncate(strings.ToValidUTF8(string(data), ""), MaxExtractedRunes), true

	default:
		p.Text = "File: " + asset.Filename
	}

	return p
}

func placeholder(p Payload, text string) Payload {
	p.Text = text
	p.Degraded = true
	p.Document = false
	return p
}

// pdfText returns the plain text of a PDF. The parser panics on some malformed
// input, so panics are turned into errors.
func pdfText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// docxText reads the paragraph text out of word/document.xml.
// Legacy binary .doc files are not zip archives and fail here.
func docxText(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = archive.Close() }()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()
		return wordText(rc)
	}
	return "", fmt.Errorf("no word/document.xml in archive")
}

func wordText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
