package ingest

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapsocial/synapsocial/internal/model"
)

func TestClassify(t *testing.T) {
	tests := map[string]Kind{
		"photo.JPG":    KindImage,
		"photo.jpeg":   KindImage,
		"a.png":        KindImage,
		"a.gif":        KindImage,
		"a.webp":       KindImage,
		"clip.mp4":     KindVideo,
		"clip.MOV":     KindVideo,
		"clip.avi":     KindVideo,
		"clip.mkv":     KindVideo,
		"clip.webm":    KindVideo,
		"resume.pdf":   KindPDF,
		"notes.doc":    KindDoc,
		"notes.docx":   KindDoc,
		"readme.txt":   KindTxt,
		"archive.zip":  KindUnknown,
		"no-extension": KindUnknown,
		"":             KindUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, Classify(name), name)
	}
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/png", MimeType("a.png"))
	assert.Equal(t, "image/jpeg", MimeType("a.jpg"))
	assert.Equal(t, "video/quicktime", MimeType("a.mov"))
	assert.Equal(t, "video/mp4", MimeType("a.mkv"))
	assert.Equal(t, "", MimeType("a.pdf"))
}

func TestStageAndRelease(t *testing.T) {
	dir := t.TempDir()

	asset, err := Stage(dir, "../../etc/Notes.TXT", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "Notes.TXT", asset.Filename)
	assert.Equal(t, KindTxt, asset.Kind)
	assert.Equal(t, int64(5), asset.Size)
	assert.Equal(t, dir, filepath.Dir(asset.Path))
	assert.FileExists(t, asset.Path)

	require.NoError(t, asset.Release())
	assert.NoFileExists(t, asset.Path)
	require.NoError(t, asset.Release(), "second release is a no-op")

	var nilAsset *Asset
	assert.NoError(t, nilAsset.Release())
}

func stage(t *testing.T, name string, data []byte) *Asset {
	t.Helper()
	asset, err := Stage(t.TempDir(), name, bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = asset.Release() })
	return asset
}

func TestExtractImage(t *testing.T) {
	p := Extract(stage(t, "pic.webp", []byte{1, 2, 3}))

	assert.True(t, p.Inline)
	assert.Equal(t, []byte{1, 2, 3}, p.Data)
	assert.Equal(t, "image/webp", p.MimeType)
}

func TestExtractSmallVideoIsInline(t *testing.T) {
	p := Extract(stage(t, "clip.mp4", []byte("tiny video")))

	assert.True(t, p.Inline)
	assert.Equal(t, "video/mp4", p.MimeType)
}

func TestExtractLargeVideoIsDescribed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.mov")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, os.Truncate(path, 11<<20))

	p := Extract(&Asset{Filename: "big.mov", Kind: KindVideo, Path: path, Size: 11 << 20})

	assert.False(t, p.Inline)
	assert.Empty(t, p.Data)
	assert.Equal(t, "Video: big.mov (11.00MB)", p.Text)
}

func TestExtractTextTruncates(t *testing.T) {
	p := Extract(stage(t, "long.txt", []byte(strings.Repeat("é", MaxExtractedRunes+50))))

	assert.True(t, p.Document)
	assert.Equal(t, MaxExtractedRunes, len([]rune(p.Text)))
}

func TestExtractUnreadablePDFDegrades(t *testing.T) {
	p := Extract(stage(t, "broken.pdf", []byte("definitely not a pdf")))

	assert.True(t, p.Degraded)
	assert.False(t, p.Document)
	assert.Equal(t, "PDF: broken.pdf", p.Text)
}

func TestExtractDocx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Quarterly</w:t></w:r><w:r><w:t xml:space="preserve"> results</w:t></w:r></w:p>
<w:p><w:r><w:t>Revenue up</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := Extract(stage(t, "report.docx", buf.Bytes()))

	assert.True(t, p.Document)
	assert.Equal(t, "Quarterly results\nRevenue up", p.Text)
}

func TestExtractLegacyDocDegrades(t *testing.T) {
	p := Extract(stage(t, "old.doc", []byte{0xd0, 0xcf, 0x11, 0xe0}))

	assert.True(t, p.Degraded)
	assert.Equal(t, "Document: old.doc", p.Text)
}

func TestExtractUnknown(t *testing.T) {
	p := Extract(stage(t, "data.bin", []byte{0}))

	assert.Equal(t, KindUnknown, p.Kind)
	assert.Equal(t, "File: data.bin", p.Text)
}

func TestIsConversational(t *testing.T) {
	assert.True(t, IsConversational("hi, how are you"))
	assert.True(t, IsConversational("Thanks!"))
	assert.False(t, IsConversational("Write a LinkedIn post about our launch"))
	assert.False(t, IsConversational("need HASHTAGS for my cat pic"))
}

func TestBuildPromptConversational(t *testing.T) {
	p := BuildPrompt(nil, "hi, how are you", "linkedin")

	assert.True(t, p.Conversational)
	assert.Equal(t, model.VariantText, p.Variant)
	assert.NotContains(t, p.System, "Platform:")
}

func TestBuildPromptContentRequestUsesPlatformTone(t *testing.T) {
	p := BuildPrompt(nil, "draft a post about hiring", "Instagram")

	assert.False(t, p.Conversational)
	assert.Contains(t, p.System, "Platform: instagram.")
	assert.Contains(t, p.System, "emojis")
	assert.Equal(t, "draft a post about hiring", p.Parts[0].Text)
}

func TestBuildPromptUnknownPlatformIsGeneral(t *testing.T) {
	p := BuildPrompt(nil, "generate content", "myspace")
	assert.Contains(t, p.System, "Platform: general.")
}

func TestBuildPromptInlineImage(t *testing.T) {
	payload := &Payload{Kind: KindImage, Inline: true, Data: []byte{9}, MimeType: "image/png"}

	p := BuildPrompt(payload, "", "youtube")

	assert.Equal(t, model.VariantMultimodal, p.Variant)
	require.Len(t, p.Parts, 2)
	assert.True(t, p.Parts[0].IsInline())
	assert.Contains(t, p.Parts[1].Text, "youtube content")
}

func TestBuildPromptDocumentIsMultimodal(t *testing.T) {
	payload := &Payload{Kind: KindPDF, Filename: "cv.pdf", Text: "Ten years of Go", Document: true}

	p := BuildPrompt(payload, "make it punchy", "linkedin")

	assert.Equal(t, model.VariantMultimodal, p.Variant)
	assert.Equal(t, "File content (cv.pdf):\n\nTen years of Go\n\nmake it punchy", p.Parts[0].Text)
}

func TestBuildPromptLargeVideoAndUnknownUseText(t *testing.T) {
	video := BuildPrompt(&Payload{Kind: KindVideo, Text: "Video: big.mp4 (12.00MB)"}, "", "")
	assert.Equal(t, model.VariantText, video.Variant)
	assert.True(t, strings.HasPrefix(video.Parts[0].Text, "Video: big.mp4 (12.00MB)\n"))

	unknown := BuildPrompt(&Payload{Kind: KindUnknown, Text: "File: a.bin"}, "", "")
	assert.Equal(t, model.VariantText, unknown.Variant)
	assert.Contains(t, unknown.Parts[0].Text, "File: a.bin")
	assert.False(t, unknown.Conversational)
}

func TestReplyPrompt(t *testing.T) {
	yt := ReplyPrompt(model.PlatformYouTube, "My vlog", "great video")
	assert.Equal(t, model.VariantReply, yt.Variant)
	assert.Contains(t, yt.Parts[0].Text, "1 sentence only")

	ig := ReplyPrompt(model.PlatformInstagram, "sunset", "wow")
	assert.Contains(t, ig.Parts[0].Text, "Add 1 emoji. No hashtags.")
}
