// Package linkedin publishes member posts through the LinkedIn v2 REST API.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/platform"
	"golang.org/x/oauth2"
)

const (
	service        = "linkedin"
	defaultBaseURL = "https://api.linkedin.com"
	defaultTitle   = "Posted via SynapSocial"
	maxDescription = 200
)

var ErrMediaBytesRequired = errors.New("linkedin media upload needs the file bytes")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c
}

// authed returns an HTTP client that signs every request with the member token.
func (c *Client) authed(token string) *http.Client {
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.httpClient.Transport,
		},
	}
}

// Publish posts job.Text, with job.Media attached when present.
func (c *Client) Publish(ctx context.Context, creds model.Credentials, job *model.PublishJob) error {
	if creds.AccessToken == "" {
		err := fmt.Errorf("%w: linkedin access token missing", apperr.ErrNotConnected)
		job.Fail(err)
		return err
	}
	if job.Media != nil && !job.Media.HasBytes() {
		err := ErrMediaBytesRequired
		job.Fail(err)
		return err
	}

	r := &run{client: c, http: c.authed(creds.AccessToken), job: job}
	return platform.Run[*run](ctx, job, resolveAuthor{}, r)
}

type run struct {
	client *Client
	http   *http.Client
	job    *model.PublishJob
}

type state = platform.State[*run]

// resolveAuthor looks up the member id behind the token.
type resolveAuthor struct{}

// authorResolved holds the author URN.
type authorResolved struct{ author string }

// assetRegistered holds the upload URL handed out by registerUpload.
type assetRegistered struct {
	author    string
	asset     string
	uploadURL string
}

// mediaUploaded means the asset bytes are on LinkedIn.
type mediaUploaded struct {
	author string
	asset  string
}

type postCreated struct{ platform.Committed }

func (resolveAuthor) Name() string   { return "start" }
func (authorResolved) Name() string  { return "author_resolved" }
func (assetRegistered) Name() string { return "asset_registered" }
func (mediaUploaded) Name() string   { return "media_uploaded" }
func (postCreated) Name() string     { return "post_created" }

func (resolveAuthor) Step(ctx context.Context, r *run) (state, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.client.baseURL+"/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}

	var info struct {
		Sub string `json:"sub"`
	}
	if _, err := platform.Do(r.http, req, service, "userinfo", &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, apperr.Upstream(service, "userinfo", 0, "no member id in response", nil)
	}
	return authorResolved{author: "urn:li:person:" + info.Sub}, nil
}

func (s authorResolved) Step(ctx context.Context, r *run) (state, error) {
	if r.job.Media == nil {
		if err := r.createPost(ctx, s.author, ""); err != nil {
			return nil, err
		}
		return postCreated{}, nil
	}

	if r.job.Recheck != nil {
		if err := r.job.Recheck(ctx); err != nil {
			return nil, err
		}
	}

	recipe := "urn:li:digitalmediaRecipe:feedshare-image"
	if r.job.Media.IsVideo() {
		recipe = "urn:li:digitalmediaRecipe:feedshare-video"
	}
	body := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{recipe},
			"owner":   s.author,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}
	req, err := jsonRequest(ctx, http.MethodPost, r.client.baseURL+"/v2/assets?action=registerUpload", body)
	if err != nil {
		return nil, err
	}

	var registered struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if _, err := platform.Do(r.http, req, service, "register upload", &registered); err != nil {
		return nil, err
	}

	uploadURL := registered.Value.UploadMechanism["com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"].UploadURL
	if uploadURL == "" || registered.Value.Asset == "" {
		return nil, apperr.Upstream(service, "register upload", 0, "no upload url or asset in response", nil)
	}
	return assetRegistered{author: s.author, asset: registered.Value.Asset, uploadURL: uploadURL}, nil
}

func (s assetRegistered) Step(ctx context.Context, r *run) (state, error) {
	media := r.job.Media
	body, err := media.Open()
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uploadURL, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = mediaSize(media)
	contentType := media.MimeType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)

	if _, err := platform.Do(r.http, req, service, "upload media", nil); err != nil {
		return nil, err
	}
	return mediaUploaded{author: s.author, asset: s.asset}, nil
}

func (s mediaUploaded) Step(ctx context.Context, r *run) (state, error) {
	if err := r.createPost(ctx, s.author, s.asset); err != nil {
		return nil, err
	}
	return postCreated{}, nil
}

func (postCreated) Step(ctx context.Context, r *run) (state, error) {
	r.job.Advance(platform.StateDone)
	return nil, nil
}

// createPost issues the ugcPosts call. An empty asset posts text only.
func (r *run) createPost(ctx context.Context, author, asset string) error {
	share := map[string]any{
		"shareCommentary":    map[string]string{"text": r.job.Text},
		"shareMediaCategory": "NONE",
	}
	if asset != "" {
		category := "IMAGE"
		if r.job.Media.IsVideo() {
			category = "VIDEO"
		}
		title := r.job.Media.Filename
		if title == "" {
			title = defaultTitle
		}
		share["shareMediaCategory"] = category
		share["media"] = []map[string]any{{
			"status":      "READY",
			"description": map[string]string{"text": platform.Truncate(r.job.Text, maxDescription)},
			"media":       asset,
			"title":       map[string]string{"text": title},
		}}
	}

	body := map[string]any{
		"author":          author,
		"lifecycleState":  "PUBLISHED",
		"specificContent": map[string]any{"com.linkedin.ugc.ShareContent": share},
		"visibility":      map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	req, err := jsonRequest(ctx, http.MethodPost, r.client.baseURL+"/v2/ugcPosts", body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	var created struct {
		ID string `json:"id"`
	}
	header, err := platform.Do(r.http, req, service, "create post", &created)
	if err != nil {
		return err
	}

	id := created.ID
	if id == "" {
		id = header.Get("X-RestLi-Id")
	}
	r.job.PostID = id
	if id != "" {
		r.job.URL = "https://www.linkedin.com/feed/update/" + id
	}
	return nil
}

func jsonRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// mediaSize lets the upload go out with a Content-Length instead of chunked.
func mediaSize(m *model.Media) int64 {
	if len(m.Data) > 0 {
		return int64(len(m.Data))
	}
	if info, err := os.Stat(m.Path); err == nil {
		return info.Size()
	}
	return -1
}

