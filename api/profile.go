package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

type ProfileService struct {
	client *Client
}

// Get fetches the authenticated user's profile.
func (s *ProfileService) Get(ctx context.Context) (*User, error) {
	var user User
	err := s.client.http.DoJSON(ctx, http.MethodGet, s.client.url("/users/me"), nil, &user)
	if err != nil {
		return nil, errors.Wrap(err, "[ProfileService.Get] fetch profile")
	}
	return &user, nil
}

type ProfileUpdate struct {
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	Country     *string `json:"country,omitempty"`
}

// Update patches the authenticated user's profile. Nil fields are left
// untouched server-side.
func (s *ProfileService) Update(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	err := s.client.http.DoJSON(ctx, http.MethodPatch, s.client.url("/users/me"), update, &user)
	if err != nil {
		return nil, errors.Wrap(err, "[ProfileService.Update] update profile")
	}
	return &user, nil
}
