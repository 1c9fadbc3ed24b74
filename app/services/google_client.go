package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/socialbucket/socialbucket/config"
)

// GoogleBusinessAdapter publishes local posts to a Google Business Profile
// location. The stored refresh token is exchanged for a short-lived access
// token on every post.
type GoogleBusinessAdapter struct {
	config *config.SocialConfig
	client *http.Client
}

// NewGoogleBusinessAdapter creates a new Google Business Profile adapter
func NewGoogleBusinessAdapter(cfg *config.SocialConfig) *GoogleBusinessAdapter {
	return &GoogleBusinessAdapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.PostTimeout},
	}
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Post publishes the media and caption as a local post on the user's location
func (a *GoogleBusinessAdapter) Post(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) error {
	if creds.GoogleRefreshToken == "" || creds.GoogleLocationID == "" {
		return fmt.Errorf("google business credentials are not configured")
	}

	accessToken, err := a.accessToken(ctx, creds)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"languageCode": "en-US",
		"summary":      caption,
		"topicType":    "STANDARD",
		"media": []map[string]string{{
			"mediaFormat": "PHOTO",
			"sourceUrl":   mediaURL,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal local post request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/accounts/%s/locations/%s/localPosts",
		a.config.GoogleBusinessAPIURL, creds.GoogleAccountID, creds.GoogleLocationID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create local post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("google business API returned status %d", resp.StatusCode)
	}

	return nil
}

// accessToken exchanges the refresh token for an access token
func (a *GoogleBusinessAdapter) accessToken(ctx context.Context, creds PlatformCredentials) (string, error) {
	params := url.Values{}
	params.Set("client_id", a.config.GoogleClientID)
	params.Set("client_secret", a.config.GoogleClientSecret)
	params.Set("refresh_token", creds.GoogleRefreshToken)
	params.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.GoogleTokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to refresh google access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google token endpoint returned status %d", resp.StatusCode)
	}

	var token googleTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode google token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("google token response has no access token")
	}

	return token.AccessToken, nil
}
