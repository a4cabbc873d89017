// Package idp wraps the hosted identity provider's HTTP API: token
// verification plus the admin endpoints used by the invitation flow.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/motora-erp/motora-erp/internal/authn"
	"github.com/motora-erp/motora-erp/internal/authz"
)

// ErrAlreadyRegistered indicates the invited address already has an account.
var ErrAlreadyRegistered = errors.New("idp: user already registered")

// ErrUserNotFound indicates no account exists for the given address.
var ErrUserNotFound = errors.New("idp: user not found")

// Account is a provider-side user record.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client wraps interactions with the identity provider API.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient constructs a new client. serviceKey authorizes admin endpoints.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type userResponse struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	UserMetadata authz.ClaimMetadata `json:"user_metadata"`
}

// Verify checks a bearer credential against the provider's user endpoint.
// Implements authn.Verifier.
func (c *Client) Verify(ctx context.Context, token string) (*authn.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("idp: verify returned status %d", resp.StatusCode)
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("idp: verify response has no subject")
	}
	return &authn.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Metadata: user.UserMetadata,
	}, nil
}

// Invite sends an invitation email through the provider. metadata is stored
// in the invited account's claim metadata.
func (c *Client) Invite(ctx context.Context, email string, metadata map[string]string) (*Account, error) {
	payload, err := json.Marshal(map[string]any{"email": email, "data": metadata})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/invite", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.adminHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict {
		return nil, ErrAlreadyRegistered
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if strings.Contains(strings.ToLower(string(body)), "already") {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("idp: invite returned status %d", resp.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail looks up an existing account by address.
func (c *Client) FindByEmail(ctx context.Context, email string) (*Account, error) {
	endpoint := c.baseURL + "/auth/v1/admin/users?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.adminHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("idp: list users returned status %d", resp.StatusCode)
	}

	var listing struct {
		Users []Account `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}
	want := strings.ToLower(email)
	for _, account := range listing.Users {
		if strings.ToLower(account.Email) == want {
			return &account, nil
		}
	}
	return nil, ErrUserNotFound
}

func (c *Client) adminHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}
