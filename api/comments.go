package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

type CommentsService struct {
	client *Client
}

type Comment struct {
	ID        string    `json:"id"`
	WinID     string    `json:"winId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (s *CommentsService) List(ctx context.Context, winID string) ([]Comment, error) {
	if winID == "" {
		return nil, errors.New("[CommentsService.List] win ID is required")
	}
	var comments []Comment
	endpoint := s.client.url("/wins/" + url.PathEscape(winID) + "/comments")
	if err := s.client.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &comments); err != nil {
		return nil, errors.Wrap(err, "[CommentsService.List] list comments")
	}
	return comments, nil
}

type commentDraft struct {
	Text string `json:"text"`
}

func (s *CommentsService) Add(ctx context.Context, winID, text string) (*Comment, error) {
	if winID == "" {
		return nil, errors.New("[CommentsService.Add] win ID is required")
	}
	if text == "" {
		return nil, errors.New("[CommentsService.Add] text is required")
	}
	var comment Comment
	endpoint := s.client.url("/wins/" + url.PathEscape(winID) + "/comments")
	if err := s.client.http.DoJSON(ctx, http.MethodPost, endpoint, commentDraft{Text: text}, &comment); err != nil {
		return nil, errors.Wrap(err, "[CommentsService.Add] add comment")
	}
	return &comment, nil
}

func (s *CommentsService) Delete(ctx context.Context, commentID string) error {
	if commentID == "" {
		return errors.New("[CommentsService.Delete] comment ID is required")
	}
	endpoint := s.client.url("/comments/" + url.PathEscape(commentID))
	return errors.Wrap(s.client.http.DoJSON(ctx, http.MethodDelete, endpoint, nil, nil),
		"[CommentsService.Delete] delete comment")
}
