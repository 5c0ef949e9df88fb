package httpgateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

type countRequest struct {
	Count int `json:"count"`
}

type qualityRequest struct {
	Quality int `json:"quality"`
}

type friendsRequest struct {
	FriendIDs []int64 `json:"friend_ids"`
}

// GetUserState implements gateway.StateGateway.
func (c *Client) GetUserState(ctx context.Context) (domain.UserState, error) {
	var state domain.UserState
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/state", out: &state, retry: true})
	if err != nil {
		return domain.UserState{}, err
	}
	return state, nil
}

// GenerateNewWords implements gateway.StateGateway.
func (c *Client) GenerateNewWords(ctx context.Context, count int) ([]domain.Word, error) {
	var words []domain.Word
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/words/generate",
		body:   countRequest{Count: count},
		out:    &words,
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// RecordInteraction implements gateway.StateGateway.
func (c *Client) RecordInteraction(ctx context.Context, wordID string, quality int) (domain.Word, error) {
	var word domain.Word
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/words/" + url.PathEscape(wordID) + "/interactions",
		body:   qualityRequest{Quality: quality},
		out:    &word,
	})
	if err != nil {
		return domain.Word{}, err
	}
	return word, nil
}

// ToggleBookmark implements gateway.StateGateway.
func (c *Client) ToggleBookmark(ctx context.Context, wordID string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/bookmarks/" + url.PathEscape(wordID) + "/toggle",
	})
}

// AddPracticeSession implements gateway.StateGateway.
func (c *Client) AddPracticeSession(
	ctx context.Context,
	session domain.NewPracticeSession,
) ([]domain.PracticeSession, error) {
	var history []domain.PracticeSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/sessions",
		body:   session,
		out:    &history,
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// ClearPracticeHistory implements gateway.StateGateway.
func (c *Client) ClearPracticeHistory(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/v1/sessions"})
}

// UpdateSettings implements gateway.StateGateway.
func (c *Client) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/v1/settings", body: settings})
}

// UpdateFriends implements gateway.StateGateway.
func (c *Client) UpdateFriends(ctx context.Context, friendIDs []int64) error {
	if friendIDs == nil {
		friendIDs = []int64{}
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/v1/friends",
		body:   friendsRequest{FriendIDs: friendIDs},
	})
}
