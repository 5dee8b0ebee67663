package model

import (
	"context"
	"time"
)

// Origin tells who initiated an action.
type Origin string

const (
	OriginInteractive Origin = "interactive"
	OriginAutonomous  Origin = "autonomous"
)

// PublishJob is one attempt to post to one platform. It is never retried.
type PublishJob struct {
	ID          string
	Platform    Platform
	Origin      Origin
	Text        string
	Title       string
	Description string
	Tags        []string
	Media       *Media

	// Recheck runs right before media is registered with a platform.
	// The publish service uses it to re-apply the auto-post gate.
	Recheck func(ctx context.Context) error

	State     string
	Trace     []string
	PostID    string
	URL       string
	Failure   string
	StartedAt time.Time
}

// Advance records a state transition.
func (j *PublishJob) Advance(state string) {
	j.State = state
	j.Trace = append(j.Trace, state)
}

// Fail marks the job failed with the reason taken from err.
func (j *PublishJob) Fail(err error) {
	j.Failure = err.Error()
	j.Advance("failed")
}

type GeneratedContent struct {
	Text           string `json:"reply"`
	Platform       string `json:"platform"`
	Model          string `json:"model"`
	Conversational bool   `json:"conversational"`
}
