package youtube

import (
	"context"
	"strings"
	"time"

	"github.com/synapsocial/synapsocial/internal/apperr"
	"github.com/synapsocial/synapsocial/internal/model"
)

// RecentPosts lists the newest uploads through the channel's uploads playlist.
func (c *Client) RecentPosts(ctx context.Context, creds model.Credentials, limit int) ([]model.PostRef, error) {
	svc, err := c.engagementAPI(ctx, creds)
	if err != nil {
		return nil, err
	}

	playlist, err := svc.UploadsPlaylist(ctx)
	if err != nil {
		return nil, upstream(ctx, "channels.list", err)
	}
	if playlist == "" {
		return nil, apperr.Upstream(service, "channels.list", 0, "channel has no uploads playlist", nil)
	}

	items, err := svc.PlaylistItems(ctx, playlist, int64(limit))
	if err != nil {
		return nil, upstream(ctx, "playlistItems.list", err)
	}

	posts := make([]model.PostRef, 0, len(items))
	for _, it := range items {
		if it.Snippet == nil || it.Snippet.ResourceId == nil || it.Snippet.ResourceId.VideoId == "" {
			continue
		}
		posts = append(posts, model.PostRef{
			ID:      it.Snippet.ResourceId.VideoId,
			Title:   it.Snippet.Title,
			Created: parseTime(it.Snippet.PublishedAt),
		})
	}
	return posts, nil
}

// Comments lists top-level comment threads on a video, newest first.
func (c *Client) Comments(ctx context.Context, creds model.Credentials, post model.PostRef, limit int) ([]model.EngagementItem, error) {
	svc, err := c.engagementAPI(ctx, creds)
	if err != nil {
		return nil, err
	}

	threads, err := svc.CommentThreads(ctx, post.ID, int64(limit))
	if err != nil {
		return nil, upstream(ctx, "commentThreads.list", err)
	}

	items := make([]model.EngagementItem, 0, len(threads))
	for _, th := range threads {
		if th.Snippet == nil || th.Snippet.TopLevelComment == nil || th.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		top := th.Snippet.TopLevelComment
		text := top.Snippet.TextOriginal
		if text == "" {
			text = top.Snippet.TextDisplay
		}
		items = append(items, model.EngagementItem{
			ID:          top.Id,
			Platform:    model.PlatformYouTube,
			PostID:      post.ID,
			PostTitle:   post.Title,
			Author:      top.Snippet.AuthorDisplayName,
			Text:        text,
			PublishedAt: parseTime(top.Snippet.PublishedAt),
			Replied:     th.Snippet.TotalReplyCount > 0,
		})
	}
	return items, nil
}

// Reply posts text under the comment.
func (c *Client) Reply(ctx context.Context, creds model.Credentials, item model.EngagementItem, text string) error {
	svc, err := c.engagementAPI(ctx, creds)
	if err != nil {
		return err
	}
	if err := svc.InsertReply(ctx, item.ID, strings.TrimSpace(text)); err != nil {
		return upstream(ctx, "comments.insert", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
