package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/synapsocial/synapsocial/internal/model"
	"golang.org/x/text/cases"
)

// PlatformGeneral is the prompt target when no specific platform is chosen.
const PlatformGeneral = "general"

const assistantPrompt = `You are SynapSocial AI, a friendly assistant for content creators.
Reply conversationally and keep it short.
When it would help, offer to draft a post for LinkedIn, Instagram or YouTube.`

var tones = map[string]string{
	string(model.PlatformLinkedIn):  "LinkedIn: professional and formal. Use at most 3 to 5 hashtags.",
	string(model.PlatformInstagram): "Instagram: casual and upbeat with emojis. Add 15 to 20 relevant hashtags.",
	string(model.PlatformYouTube):   "YouTube: SEO-focused. Structure the answer as Title, Description and Tags.",
	PlatformGeneral:                 "General: cover all platforms. LinkedIn professional, Instagram casual with emojis, YouTube SEO-focused.",
}

// contentTerms mark a plain message as a request for content rather than small talk.
var contentTerms = map[string]bool{
	"post": true, "posts": true, "caption": true, "captions": true, "hashtag": true, "hashtags": true,
	"linkedin": true, "instagram": true, "insta": true, "youtube": true, "reel": true, "reels": true,
	"video": true, "videos": true, "thumbnail": true, "title": true, "titles": true, "description": true,
	"tags": true, "seo": true, "content": true, "script": true, "bio": true, "thread": true,
	"article": true, "blog": true, "write": true, "draft": true, "generate": true, "create": true,
	"rewrite": true, "headline": true, "carousel": true, "story": true, "announcement": true,
	"campaign": true, "audience": true, "engagement": true, "followers": true,
}

var folder = cases.Fold()

// NormalizePlatform maps an empty or unknown prompt target to "general".
func NormalizePlatform(platform string) string {
	p := strings.ToLower(strings.TrimSpace(platform))
	if _, ok := tones[p]; !ok {
		return PlatformGeneral
	}
	return p
}

// IsConversational reports whether a message without attachment is small talk.
func IsConversational(message string) bool {
	words := strings.FieldsFunc(folder.String(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return true
	}
	for _, w := range words {
		if contentTerms[w] {
			return false
		}
	}
	return true
}

// SystemPrompt is the content-authoring prompt for platform.
func SystemPrompt(platform string) string {
	p := NormalizePlatform(platform)
	return fmt.Sprintf(`You are SynapSocial AI, expert social media assistant.
Platform: %s.
%s
Analyze any uploaded content deeply and generate optimized ready-to-post social media content.`, p, tones[p])
}

// BuildPrompt routes an extracted payload and the user's message into a prompt.
// A nil payload means the message came without attachment.
func BuildPrompt(payload *Payload, message, platform string) model.Prompt {
	target := NormalizePlatform(platform)
	audience := target + " content"
	if target == PlatformGeneral {
		audience = "social media content"
	}
	message = strings.TrimSpace(message)
	or := func(def string) string {
		if message != "" {
			return message
		}
		return def
	}

	if payload == nil {
		if IsConversational(message) {
			return model.Prompt{
				System:         assistantPrompt,
				Parts:          []model.Part{{Text: message}},
				Variant:        model.VariantText,
				Conversational: true,
			}
		}
		return model.Prompt{
			System:  SystemPrompt(target),
			Parts:   []model.Part{{Text: message}},
			Variant: model.VariantText,
		}
	}

	prompt := model.Prompt{System: SystemPrompt(target), Variant: model.VariantText}

	switch {
	case payload.Inline && payload.Kind == KindImage:
		prompt.Variant = model.VariantMultimodal
		prompt.Parts = []model.Part{
			{Data: payload.Data, MimeType: payload.MimeType},
			{Text: or(fmt.Sprintf("Analyze this image and generate optimized %s. Include caption, hashtags, and posting tips.", audience))},
		}

	case payload.Inline && payload.Kind == KindVideo:
		prompt.Variant = model.VariantMultimodal
		prompt.Parts = []model.Part{
			{Data: payload.Data, MimeType: payload.MimeType},
			{Text: or(`Analyze this video and generate:
1. 5 catchy YouTube/Instagram title options
2. SEO description (150 words)
3. 10 relevant hashtags
4. Best platform to post this on
5. Thumbnail text suggestion`)},
		}

	case payload.Kind == KindVideo:
		prompt.Parts = []model.Part{
			{Text: payload.Text + "\n" + or("Generate YouTube title, description, hashtags for this video.")},
		}

	case payload.Document:
		prompt.Variant = model.VariantMultimodal
		prompt.Parts = []model.Part{
			{Text: fmt.Sprintf("File content (%s):\n\n%s\n\n%s", payload.Filename, payload.Text,
				or(fmt.Sprintf("Generate optimized %s post from this content.", strings.TrimSuffix(audience, " content"))))},
		}

	default:
		// unknown kinds and degraded extraction: the filename is the only context
		prompt.Parts = []model.Part{
			{Text: payload.Text + "\n" + or(fmt.Sprintf("Generate optimized %s about this file.", audience))},
		}
	}

	return prompt
}

// ReplyPrompt asks for a reply to one comment in the platform's voice.
func ReplyPrompt(platform model.Platform, postTitle, comment string) model.Prompt {
	var text string
	switch platform {
	case model.PlatformInstagram:
		text = fmt.Sprintf("Write a short friendly Instagram reply to this comment.\nPost: %q\nComment: %q\nRules: Max 1-2 sentences. Friendly, natural. Add 1 emoji. No hashtags.", postTitle, comment)
	default:
		text = fmt.Sprintf("Write a short friendly YouTube reply (1 sentence only) to: %q on video %q. Just the reply text, nothing else.", comment, postTitle)
	}
	return model.Prompt{
		Parts:   []model.Part{{Text: text}},
		Variant: model.VariantReply,
	}
}
