// Package instagram publishes to an Instagram business account and manages its
// comments through the Graph API.
package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/platform"
)

const (
	service        = "instagram"
	defaultBaseURL = "https://graph.facebook.com/v18.0"
)

// ErrMediaURLRequired means the job has no publicly reachable media URL.
// Instagram fetches the media itself and cannot take an upload.
var ErrMediaURLRequired = errors.New("instagram needs a public media url")

// Timing controls the waits between publish calls.
type Timing struct {
	ImageDelay   time.Duration // pause between container creation and publish for images
	PollInterval time.Duration // pause before each reel status check
	PollAttempts int           // status checks before giving up
}

var DefaultTiming = Timing{
	ImageDelay:   3 * time.Second,
	PollInterval: 5 * time.Second,
	PollAttempts: 20,
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timing     Timing
	sleep      func(context.Context, time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTiming(t Timing) Option {
	return func(c *Client) {
		c.timing = t
	}
}

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		timing:     DefaultTiming,
		sleep:      platform.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.timing.PollAttempts <= 0 {
		c.timing.PollAttempts = DefaultTiming.PollAttempts
	}
	return c
}

func checkCreds(creds model.Credentials) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("%w: instagram access token missing", apperr.ErrNotConnected)
	}
	if creds.ExternalID == "" {
		return fmt.Errorf("%w: instagram business account id missing", apperr.ErrNotConnected)
	}
	return nil
}

// Publish creates a media container from job.Media.URL and publishes it.
// Videos are posted as reels and polled until processing finishes.
func (c *Client) Publish(ctx context.Context, creds model.Credentials, job *model.PublishJob) error {
	err := checkCreds(creds)
	if err == nil && (job.Media == nil || job.Media.URL == "") {
		err = ErrMediaURLRequired
	}
	if err != nil {
		job.Fail(err)
		return err
	}

	r := &run{client: c, creds: creds, job: job}
	return platform.Run[*run](ctx, job, start{}, r)
}

type run struct {
	client *Client
	creds  model.Credentials
	job    *model.PublishJob
}

type state = platform.State[*run]

type start struct{}

// containerCreated holds the container id returned by /{account}/media.
type containerCreated struct{ container string }

// processing is one reel status check; attempt counts from 1.
type processing struct {
	container string
	attempt   int
}

type published struct{ platform.Committed }

func (start) Name() string            { return "start" }
func (containerCreated) Name() string { return "container_created" }
func (processing) Name() string       { return "processing" }
func (published) Name() string        { return "published" }

func (start) Step(ctx context.Context, r *run) (state, error) {
	form := url.Values{}
	form.Set("caption", r.job.Text)
	if r.job.Media.IsVideo() {
		form.Set("media_type", "REELS")
		form.Set("video_url", r.job.Media.URL)
	} else {
		form.Set("image_url", r.job.Media.URL)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := r.client.post(ctx, "/"+r.creds.ExternalID+"/media", r.creds.AccessToken, form, "create container", &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, apperr.Upstream(service, "create container", 0, "no container id in response", nil)
	}
	return containerCreated{container: created.ID}, nil
}

func (s containerCreated) Step(ctx context.Context, r *run) (state, error) {
	if r.job.Media.IsVideo() {
		return processing{container: s.container, attempt: 1}, nil
	}

	if err := r.client.sleep(ctx, r.client.timing.ImageDelay); err != nil {
		return nil, apperr.Canceled("image delay", err)
	}
	if err := r.publish(ctx, s.container); err != nil {
		return nil, err
	}
	return published{}, nil
}

func (s processing) Step(ctx context.Context, r *run) (state, error) {
	if err := r.client.sleep(ctx, r.client.timing.PollInterval); err != nil {
		return nil, apperr.Canceled("reel processing", err)
	}

	var status struct {
		StatusCode string `json:"status_code"`
	}
	query := url.Values{"fields": {"status_code"}}
	if err := r.client.get(ctx, "/"+s.container, r.creds.AccessToken, query, "container status", &status); err != nil {
		return nil, err
	}

	switch status.StatusCode {
	case "FINISHED":
		if err := r.publish(ctx, s.container); err != nil {
			return nil, err
		}
		return published{}, nil
	case "IN_PROGRESS", "":
		if s.attempt >= r.client.timing.PollAttempts {
			return nil, fmt.Errorf("%w: reel %s still processing after %d checks", apperr.ErrProcessingTimeout, s.container, s.attempt)
		}
		return processing{container: s.container, attempt: s.attempt + 1}, nil
	default:
		return nil, apperr.Upstream(service, "container status", 0, "reel processing ended with status "+status.StatusCode, nil)
	}
}

func (published) Step(ctx context.Context, r *run) (state, error) {
	r.job.Advance(platform.StateDone)
	return nil, nil
}

func (r *run) publish(ctx context.Context, container string) error {
	form := url.Values{"creation_id": {container}}
	var out struct {
		ID string `json:"id"`
	}
	if err := r.client.post(ctx, "/"+r.creds.ExternalID+"/media_publish", r.creds.AccessToken, form, "publish", &out); err != nil {
		return err
	}
	r.job.PostID = out.ID
	return nil
}

func (c *Client) get(ctx context.Context, path, token string, query url.Values, op string, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	_, err = platform.Do(c.httpClient, req, service, op, out)
	return err
}

func (c *Client) post(ctx context.Context, path, token string, form url.Values, op string, out any) error {
	form.Set("access_token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = platform.Do(c.httpClient, req, service, op, out)
	return err
}
