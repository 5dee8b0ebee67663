package model

import "time"

// RecencyWindow bounds which comments may receive a reply.
const RecencyWindow = 24 * time.Hour

// PostRef is a recent post or video whose comments are scanned.
type PostRef struct {
	ID      string
	Title   string
	Created time.Time
}

// EngagementItem is a comment fetched live from a platform. Nothing about it is stored locally.
type EngagementItem struct {
	ID          string    `json:"id"`
	Platform    Platform  `json:"platform"`
	PostID      string    `json:"postId"`
	PostTitle   string    `json:"postTitle"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"publishedAt"`
	Replied     bool      `json:"replied"`
}

// Eligible reports whether the item may receive a reply at now.
func (i EngagementItem) Eligible(now time.Time) bool {
	if i.Replied {
		return false
	}
	if i.PublishedAt.IsZero() {
		return false
	}
	return now.Sub(i.PublishedAt) < RecencyWindow
}

type Disposition string

const (
	DispositionPending    Disposition = "pending"
	DispositionConfirmed  Disposition = "confirmed"
	DispositionSkipped    Disposition = "skipped"
	DispositionAutoPosted Disposition = "auto_posted"
)

type ReplyDecision struct {
	Item        EngagementItem `json:"item"`
	Text        string         `json:"reply"`
	Disposition Disposition    `json:"disposition"`
}

// ScanReport summarizes one engagement scan.
type ScanReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Skipped    bool
	Accounts   int
	Eligible   int
	Replied    int
	Failures   []ScanFailure
}

// ScanFailure records one comment, post or account that failed during a scan.
type ScanFailure struct {
	UserID    string
	Platform  Platform
	PostID    string
	CommentID string
	Err       string
}
