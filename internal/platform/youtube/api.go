package youtube

import (
	"context"
	"io"
	"net/http"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// api is the slice of the YouTube Data API used here.
type api interface {
	InsertVideo(ctx context.Context, video *yt.Video, media io.Reader) (*yt.Video, error)
	UploadsPlaylist(ctx context.Context) (string, error)
	PlaylistItems(ctx context.Context, playlistID string, max int64) ([]*yt.PlaylistItem, error)
	CommentThreads(ctx context.Context, videoID string, max int64) ([]*yt.CommentThread, error)
	InsertReply(ctx context.Context, parentID, text string) error
}

// apiFactory builds an api around an HTTP client that already carries the user's token.
type apiFactory func(ctx context.Context, httpClient *http.Client) (api, error)

type serviceAPI struct {
	svc *yt.Service
}

func newServiceAPI(endpoint string) apiFactory {
	return func(ctx context.Context, httpClient *http.Client) (api, error) {
		opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
		if endpoint != "" {
			opts = append(opts, option.WithEndpoint(endpoint))
		}
		svc, err := yt.NewService(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return &serviceAPI{svc: svc}, nil
	}
}

func (s *serviceAPI) InsertVideo(ctx context.Context, video *yt.Video, media io.Reader) (*yt.Video, error) {
	return s.svc.Videos.Insert([]string{"snippet", "status"}, video).Media(media).Context(ctx).Do()
}

// UploadsPlaylist returns the channel's uploads playlist id, or "" when there is none.
func (s *serviceAPI) UploadsPlaylist(ctx context.Context) (string, error) {
	resp, err := s.svc.Channels.List([]string{"contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return "", nil
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (s *serviceAPI) PlaylistItems(ctx context.Context, playlistID string, max int64) ([]*yt.PlaylistItem, error) {
	resp, err := s.svc.PlaylistItems.List([]string{"snippet"}).PlaylistId(playlistID).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *serviceAPI) CommentThreads(ctx context.Context, videoID string, max int64) ([]*yt.CommentThread, error) {
	resp, err := s.svc.CommentThreads.List([]string{"snippet"}).VideoId(videoID).MaxResults(max).Order("time").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *serviceAPI) InsertReply(ctx context.Context, parentID, text string) error {
	_, err := s.svc.Comments.Insert([]string{"snippet"}, &yt.Comment{
		Snippet: &yt.CommentSnippet{ParentId: parentID, TextOriginal: text},
	}).Context(ctx).Do()
	return err
}
