package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/dayvoid97/gurkha-go/credentials"
)

type AuthService struct {
	client *Client
}

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Country     string    `json:"country,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken"`
	NotificationToken string `json:"notificationToken,omitempty"`
	User              *User  `json:"user,omitempty"`
}

// Login authenticates with the backend and stores the returned credential
// pair. Subsequent calls through the transport carry the new access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*User, error) {
	var resp loginResponse
	err := s.client.http.DoJSON(ctx, http.MethodPost, s.client.url("/auth/login"),
		loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.Login] login call")
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, errors.New("[AuthService.Login] login response missing tokens")
	}

	if err := s.client.session.Store(&credentials.Pair{
		AccessToken:       resp.AccessToken,
		RefreshToken:      resp.RefreshToken,
		NotificationToken: resp.NotificationToken,
	}); err != nil {
		return nil, errors.Wrap(err, "[AuthService.Login] store tokens")
	}
	return resp.User, nil
}

// Logout destroys the stored credential pair. Purely client-side: the backend
// invalidates refresh tokens on its own schedule.
func (s *AuthService) Logout() error {
	return errors.Wrap(s.client.session.Clear(), "[AuthService.Logout] clear session")
}
