package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

type CardsService struct {
	client *Client
}

// CompanyCard is a user-built information card about a company.
type CompanyCard struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Company   string        `json:"companyName"`
	Ticker    string        `json:"ticker,omitempty"`
	Country   string        `json:"country,omitempty"`
	Sector    string        `json:"sector,omitempty"`
	Sections  []CardSection `json:"sections,omitempty"`
	CreatedAt time.Time     `json:"createdAt,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt,omitempty"`
}

// CardSection is one titled block of card content.
type CardSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *CardsService) Get(ctx context.Context, cardID string) (*CompanyCard, error) {
	if cardID == "" {
		return nil, errors.New("[CardsService.Get] card ID is required")
	}
	var card CompanyCard
	err := s.client.http.DoJSON(ctx, http.MethodGet, s.client.url("/cards/"+url.PathEscape(cardID)), nil, &card)
	if err != nil {
		return nil, errors.Wrap(err, "[CardsService.Get] fetch card")
	}
	return &card, nil
}

// ListByUser returns the cards a user has published.
func (s *CardsService) ListByUser(ctx context.Context, username string) ([]CompanyCard, error) {
	if username == "" {
		return nil, errors.New("[CardsService.ListByUser] username is required")
	}
	var cards []CompanyCard
	endpoint := s.client.url("/cards") + "?username=" + url.QueryEscape(username)
	if err := s.client.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &cards); err != nil {
		return nil, errors.Wrap(err, "[CardsService.ListByUser] list cards")
	}
	return cards, nil
}

type CardDraft struct {
	Company  string        `json:"companyName"`
	Ticker   string        `json:"ticker,omitempty"`
	Country  string        `json:"country,omitempty"`
	Sector   string        `json:"sector,omitempty"`
	Sections []CardSection `json:"sections,omitempty"`
}

func (s *CardsService) Create(ctx context.Context, draft CardDraft) (*CompanyCard, error) {
	if draft.Company == "" {
		return nil, errors.New("[CardsService.Create] company name is required")
	}
	var card CompanyCard
	if err := s.client.http.DoJSON(ctx, http.MethodPost, s.client.url("/cards"), draft, &card); err != nil {
		return nil, errors.Wrap(err, "[CardsService.Create] create card")
	}
	return &card, nil
}
