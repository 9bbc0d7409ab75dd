package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type WinsService struct {
	client *Client
}

// Win is one posted win.
type Win struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Title        string    `json:"title"`
	Body         string    `json:"body,omitempty"`
	MediaURLs    []string  `json:"mediaUrls,omitempty"`
	Celebrations int       `json:"celebrations"`
	CommentCount int       `json:"commentCount"`
	Saved        bool      `json:"saved,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

type WinDraft struct {
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
}

type ListWinsOptions struct {
	Username string
	Limit    int
	Offset   int
}

func (s *WinsService) Create(ctx context.Context, draft WinDraft) (*Win, error) {
	if draft.Title == "" {
		return nil, errors.New("[WinsService.Create] title is required")
	}
	var win Win
	if err := s.client.http.DoJSON(ctx, http.MethodPost, s.client.url("/wins"), draft, &win); err != nil {
		return nil, errors.Wrap(err, "[WinsService.Create] create win")
	}
	return &win, nil
}

func (s *WinsService) Get(ctx context.Context, winID string) (*Win, error) {
	if winID == "" {
		return nil, errors.New("[WinsService.Get] win ID is required")
	}
	var win Win
	err := s.client.http.DoJSON(ctx, http.MethodGet, s.client.url("/wins/"+url.PathEscape(winID)), nil, &win)
	if err != nil {
		return nil, errors.Wrap(err, "[WinsService.Get] fetch win")
	}
	return &win, nil
}

func (s *WinsService) List(ctx context.Context, opts ListWinsOptions) ([]Win, error) {
	params := url.Values{}
	if opts.Username != "" {
		params.Set("username", opts.Username)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	endpoint := s.client.url("/wins")
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var wins []Win
	if err := s.client.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &wins); err != nil {
		return nil, errors.Wrap(err, "[WinsService.List] list wins")
	}
	return wins, nil
}

type celebrateResponse struct {
	Celebrations int `json:"celebrations"`
}

// Celebrate registers one celebration and returns the updated count. The
// counter itself lives server-side; repeat-celebration rules are the
// backend's call.
func (s *WinsService) Celebrate(ctx context.Context, winID string) (int, error) {
	if winID == "" {
		return 0, errors.New("[WinsService.Celebrate] win ID is required")
	}
	var resp celebrateResponse
	endpoint := s.client.url("/wins/" + url.PathEscape(winID) + "/celebrate")
	if err := s.client.http.DoJSON(ctx, http.MethodPost, endpoint, nil, &resp); err != nil {
		return 0, errors.Wrap(err, "[WinsService.Celebrate] celebrate")
	}
	return resp.Celebrations, nil
}

func (s *WinsService) Save(ctx context.Context, winID string) error {
	if winID == "" {
		return errors.New("[WinsService.Save] win ID is required")
	}
	endpoint := s.client.url("/wins/" + url.PathEscape(winID) + "/save")
	return errors.Wrap(s.client.http.DoJSON(ctx, http.MethodPost, endpoint, nil, nil),
		"[WinsService.Save] save")
}

func (s *WinsService) Delete(ctx context.Context, winID string) error {
	if winID == "" {
		return errors.New("[WinsService.Delete] win ID is required")
	}
	endpoint := s.client.url("/wins/" + url.PathEscape(winID))
	return errors.Wrap(s.client.http.DoJSON(ctx, http.MethodDelete, endpoint, nil, nil),
		"[WinsService.Delete] delete")
}
