// Package youtube uploads videos and answers comments through the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/platform"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	yt "google.golang.org/api/youtube/v3"
)

const (
	service      = "youtube"
	defaultTitle = "Uploaded via SynapSocial"
	maxTitle     = 100
	categoryID   = "22" // People & Blogs
	watchURL     = "https://www.youtube.com/watch?v="
)

var ErrVideoRequired = errors.New("youtube upload needs a video file")

// OAuthConfig identifies the SynapSocial OAuth app that minted the refresh tokens.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string // defaults to Google's token endpoint
}

type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	newAPI     apiFactory

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource // engagement calls reuse tokens per refresh token
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint points the Data API at another base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.newAPI = newServiceAPI(endpoint)
	}
}

func withAPI(f apiFactory) Option {
	return func(c *Client) {
		c.newAPI = f
	}
}

func NewClient(cfg OAuthConfig, opts ...Option) *Client {
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{yt.YoutubeUploadScope, yt.YoutubeForceSslScope},
		},
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		newAPI:     newServiceAPI(""),
		sources:    make(map[string]oauth2.TokenSource),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// refresh always exchanges the refresh token, even when the stored access token looks valid.
func (c *Client) refresh(ctx context.Context, creds model.Credentials) (*oauth2.Token, error) {
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("%w: youtube refresh token missing", apperr.ErrNotConnected)
	}
	tok, err := c.oauth.TokenSource(c.tokenContext(ctx), &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return nil, upstream(ctx, "refresh token", err)
	}
	return tok, nil
}

// engagementAPI returns an api whose token is refreshed only when it expires.
func (c *Client) engagementAPI(ctx context.Context, creds model.Credentials) (api, error) {
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("%w: youtube refresh token missing", apperr.ErrNotConnected)
	}

	c.mu.Lock()
	src, ok := c.sources[creds.RefreshToken]
	if !ok {
		src = c.oauth.TokenSource(c.tokenContext(context.Background()), &oauth2.Token{RefreshToken: creds.RefreshToken})
		c.sources[creds.RefreshToken] = src
	}
	c.mu.Unlock()

	if _, err := src.Token(); err != nil {
		c.mu.Lock()
		delete(c.sources, creds.RefreshToken)
		c.mu.Unlock()
		return nil, upstream(ctx, "refresh token", err)
	}
	return c.newAPI(ctx, c.authed(src))
}

func (c *Client) authed(src oauth2.TokenSource) *http.Client {
	return &http.Client{
		Timeout:   c.httpClient.Timeout,
		Transport: &oauth2.Transport{Source: src, Base: c.httpClient.Transport},
	}
}

// Publish uploads job.Media as a public video.
func (c *Client) Publish(ctx context.Context, creds model.Credentials, job *model.PublishJob) error {
	if job.Media == nil || !job.Media.HasBytes() {
		job.Fail(ErrVideoRequired)
		return ErrVideoRequired
	}

	r := &run{client: c, creds: creds, job: job}
	defer r.closeStream()
	return platform.Run[*run](ctx, job, start{}, r)
}

type run struct {
	client *Client
	creds  model.Credentials
	job    *model.PublishJob
	stream io.ReadCloser
}

func (r *run) closeStream() {
	if r.stream != nil {
		_ = r.stream.Close()
		r.stream = nil
	}
}

type state = platform.State[*run]

type start struct{}

// credentialRefreshed carries the freshly minted access token.
type credentialRefreshed struct{ token *oauth2.Token }

type uploadStreamOpened struct{ token *oauth2.Token }

type metadataSubmitted struct{ platform.Committed }

func (start) Name() string               { return "start" }
func (credentialRefreshed) Name() string { return "credential_refreshed" }
func (uploadStreamOpened) Name() string  { return "upload_stream_opened" }
func (metadataSubmitted) Name() string   { return "metadata_submitted" }

func (start) Step(ctx context.Context, r *run) (state, error) {
	tok, err := r.client.refresh(ctx, r.creds)
	if err != nil {
		return nil, err
	}
	return credentialRefreshed{token: tok}, nil
}

func (s credentialRefreshed) Step(ctx context.Context, r *run) (state, error) {
	stream, err := r.job.Media.Open()
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	r.stream = stream
	return uploadStreamOpened(s), nil
}

func (s uploadStreamOpened) Step(ctx context.Context, r *run) (state, error) {
	svc, err := r.client.newAPI(ctx, r.client.authed(oauth2.StaticTokenSource(s.token)))
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}

	video, err := svc.InsertVideo(ctx, Metadata(r.job), r.stream)
	r.closeStream()
	if err != nil {
		return nil, upstream(ctx, "videos.insert", err)
	}
	if video == nil || video.Id == "" {
		return nil, apperr.Upstream(service, "videos.insert", 0, "no video id in response", nil)
	}

	r.job.PostID = video.Id
	r.job.URL = watchURL + video.Id
	return metadataSubmitted{}, nil
}

func (metadataSubmitted) Step(ctx context.Context, r *run) (state, error) {
	r.job.Advance(platform.StateDone)
	return nil, nil
}

// Metadata builds the videos.insert body for job.
func Metadata(job *model.PublishJob) *yt.Video {
	title := strings.TrimSpace(job.Title)
	if title == "" {
		title = strings.TrimSpace(job.Text)
	}
	if title == "" && job.Media != nil {
		title = job.Media.Filename
	}
	if title == "" {
		title = defaultTitle
	}

	description := job.Description
	if description == "" {
		description = job.Text
	}

	return &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       platform.Truncate(title, maxTitle),
			Description: description,
			Tags:        SplitTags(job.Tags...),
			CategoryId:  categoryID,
		},
		Status: &yt.VideoStatus{PrivacyStatus: "public"},
	}
}

// SplitTags splits every value on commas and drops empty tags.
func SplitTags(values ...string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func upstream(ctx context.Context, op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return apperr.Upstream(service, op, gerr.Code, gerr.Message, err)
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		detail := strings.TrimSpace(rerr.ErrorCode + " " + rerr.ErrorDescription)
		return apperr.Upstream(service, op, status, detail, err)
	}
	return apperr.Transport(ctx, service, op, err)
}
