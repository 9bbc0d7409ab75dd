package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// AdsService logs ad impressions. Tracking is best-effort by policy: a failed
// impression call is logged and swallowed, never surfaced to the caller.
type AdsService struct {
	client *Client
}

type Impression struct {
	AdUnitID  string `json:"adUnitId"`
	Page      string `json:"page,omitempty"`
	Placement string `json:"placement,omitempty"`
}

func (s *AdsService) LogImpression(ctx context.Context, impression Impression) {
	if impression.AdUnitID == "" {
		return
	}
	err := s.client.http.DoJSON(ctx, http.MethodPost, s.client.url("/ads/impressions"), impression, nil)
	if err != nil {
		log.Warn().Err(err).Str("ad_unit", impression.AdUnitID).Msg("ad impression log failed")
	}
}
