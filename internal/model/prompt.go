package model

// Variant selects which model a prompt is sent to.
type Variant string

const (
	VariantMultimodal Variant = "multimodal"
	VariantText       Variant = "text"
	VariantReply      Variant = "reply"
)

// Part is one piece of the user turn: either text or inline bytes with a mime type.
type Part struct {
	Text     string
	Data     []byte
	MimeType string
}

func (p Part) IsInline() bool {
	return len(p.Data) > 0
}

// Prompt is a ready-to-send completion request body without model or token settings.
type Prompt struct {
	System         string
	Parts          []Part
	Variant        Variant
	Conversational bool
}
