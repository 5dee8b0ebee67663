package instagram

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/model"
)

// Graph API timestamps carry a zone offset without a colon.
const graphTime = "2006-01-02T15:04:05-0700"

func parseTime(s string) time.Time {
	if t, err := time.Parse(graphTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// RecentPosts lists the newest media of the business account.
func (c *Client) RecentPosts(ctx context.Context, creds model.Credentials, limit int) ([]model.PostRef, error) {
	if err := checkCreds(creds); err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			ID        string `json:"id"`
			Caption   string `json:"caption"`
			Timestamp string `json:"timestamp"`
		} `json:"data"`
	}
	query := url.Values{
		"fields": {"id,caption,timestamp"},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, "/"+creds.ExternalID+"/media", creds.AccessToken, query, "list media", &resp); err != nil {
		return nil, err
	}

	posts := make([]model.PostRef, 0, len(resp.Data))
	for _, m := range resp.Data {
		posts = append(posts, model.PostRef{ID: m.ID, Title: m.Caption, Created: parseTime(m.Timestamp)})
	}
	return posts, nil
}

// Comments lists top-level comments on post. A comment with any reply counts as replied.
func (c *Client) Comments(ctx context.Context, creds model.Credentials, post model.PostRef, limit int) ([]model.EngagementItem, error) {
	if err := checkCreds(creds); err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			Username  string `json:"username"`
			Timestamp string `json:"timestamp"`
			Replies   struct {
				Data []struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"replies"`
		} `json:"data"`
	}
	query := url.Values{
		"fields": {"id,text,username,timestamp,replies{id}"},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, "/"+post.ID+"/comments", creds.AccessToken, query, "list comments", &resp); err != nil {
		return nil, err
	}

	items := make([]model.EngagementItem, 0, len(resp.Data))
	for _, cm := range resp.Data {
		items = append(items, model.EngagementItem{
			ID:          cm.ID,
			Platform:    model.PlatformInstagram,
			PostID:      post.ID,
			PostTitle:   post.Title,
			Author:      cm.Username,
			Text:        cm.Text,
			PublishedAt: parseTime(cm.Timestamp),
			Replied:     len(cm.Replies.Data) > 0,
		})
	}
	return items, nil
}

// Reply answers a comment.
func (c *Client) Reply(ctx context.Context, creds model.Credentials, item model.EngagementItem, text string) error {
	if err := checkCreds(creds); err != nil {
		return err
	}
	form := url.Values{"message": {strings.TrimSpace(text)}}
	return c.post(ctx, "/"+item.ID+"/replies", creds.AccessToken, form, "reply", nil)
}
