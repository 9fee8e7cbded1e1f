package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"staffdesk/internal/domain/preferences"
)

// PreferenceStore stores preferences through the API. The server keys them
// by the user of the bearer token, so the userID arguments only guard
// against mixing sessions.
type PreferenceStore struct {
	client *Client
	userID string
}

var _ preferences.Store = (*PreferenceStore)(nil)

// Preferences returns the store of the token's user, whose id is userID.
func (c *Client) Preferences(userID string) *PreferenceStore {
	return &PreferenceStore{client: c, userID: userID}
}

// Session returns a preference session that loads each key once and writes
// only changed values.
func (c *Client) Session(userID string) *preferences.Session {
	return preferences.NewSession(c.Preferences(userID), userID)
}

func (s *PreferenceStore) checkUser(userID string) error {
	if userID != s.userID {
		return fmt.Errorf("client: preference store of %q used for %q", s.userID, userID)
	}
	return nil
}

type preferenceBody struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Found bool            `json:"found"`
}

// Get implements preferences.Store.
func (s *PreferenceStore) Get(ctx context.Context, userID, key string) (json.RawMessage, bool, error) {
	if err := s.checkUser(userID); err != nil {
		return nil, false, err
	}
	res, err := call[preferenceBody](ctx, s.client, http.MethodGet, "/preferences/"+url.PathEscape(key), nil, nil)
	if err != nil {
		return nil, false, err
	}
	if res.Error != nil {
		return nil, false, res.Error
	}
	if !res.Data.Found {
		return nil, false, nil
	}
	return res.Data.Value, true, nil
}

// Set implements preferences.Store.
func (s *PreferenceStore) Set(ctx context.Context, userID, key string, value json.RawMessage) error {
	if err := s.checkUser(userID); err != nil {
		return err
	}
	res, err := call[struct{}](ctx, s.client, http.MethodPut, "/preferences/"+url.PathEscape(key), nil, value)
	if err != nil {
		return err
	}
	if res.Error != nil {
		return res.Error
	}
	return nil
}

// ViewResult is a saved view plus the request it produces.
type ViewResult struct {
	View    preferences.SavedView `json:"view"`
	Request Request               `json:"request"`
}

// View loads the saved view of entity ("employee", "visitor", ...) as the
// server rebuilds it against the entity's searchable fields.
func (c *Client) View(ctx context.Context, entity string) (Result[ViewResult], error) {
	return call[ViewResult](ctx, c, http.MethodGet, "/preferences/views/"+url.PathEscape(entity), nil, nil)
}
