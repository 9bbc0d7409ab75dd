package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

type ExploreService struct {
	client *Client
}

// SearchQuery narrows an explore search. Zero values are omitted from the
// request.
type SearchQuery struct {
	Query   string
	Country string
	Sector  string
	Limit   int
}

// SearchResult carries both result kinds the explore surface mixes.
type SearchResult struct {
	Cards []CompanyCard `json:"cards"`
	Wins  []Win         `json:"wins"`
}

func (s *ExploreService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	params := url.Values{}
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.Sector != "" {
		params.Set("sector", q.Sector)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := s.client.url("/explore")
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result SearchResult
	if err := s.client.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, errors.Wrap(err, "[ExploreService.Search] search")
	}
	return &result, nil
}
