package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/dayvoid97/gurkha-go/realtime"
)

// MessagingService covers the HTTP side of messaging: inbox and history.
// Live delivery and receipts ride the realtime channel instead.
type MessagingService struct {
	client *Client
}

type Conversation struct {
	ID          string            `json:"id"`
	Participant User              `json:"participant"`
	LastMessage *realtime.Message `json:"lastMessage,omitempty"`
	UnreadCount int               `json:"unreadCount"`
	UpdatedAt   time.Time         `json:"updatedAt,omitempty"`
}

func (s *MessagingService) Inbox(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	err := s.client.http.DoJSON(ctx, http.MethodGet, s.client.url("/messages/inbox"), nil, &conversations)
	if err != nil {
		return nil, errors.Wrap(err, "[MessagingService.Inbox] fetch inbox")
	}
	return conversations, nil
}

func (s *MessagingService) History(ctx context.Context, conversationID string) ([]realtime.Message, error) {
	if conversationID == "" {
		return nil, errors.New("[MessagingService.History] conversation ID is required")
	}
	var messages []realtime.Message
	endpoint := s.client.url("/messages/" + url.PathEscape(conversationID))
	if err := s.client.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &messages); err != nil {
		return nil, errors.Wrap(err, "[MessagingService.History] fetch history")
	}
	return messages, nil
}
