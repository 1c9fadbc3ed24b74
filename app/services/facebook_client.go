package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/socialbucket/socialbucket/config"
)

// FacebookAdapter posts to a Facebook page through the Graph API. Photos and
// videos go through different edges; the page access token is resolved from
// the user token on every post.
type FacebookAdapter struct {
	config *config.SocialConfig
	client *http.Client
}

// NewFacebookAdapter creates a new Facebook adapter
func NewFacebookAdapter(cfg *config.SocialConfig) *FacebookAdapter {
	return &FacebookAdapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.PostTimeout},
	}
}

type graphAccountsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Post publishes the media to the user's Facebook page
func (a *FacebookAdapter) Post(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) error {
	if creds.FacebookAccessToken == "" || creds.FacebookPageID == "" {
		return fmt.Errorf("facebook credentials are not configured")
	}

	pageToken, err := a.pageAccessToken(ctx, creds)
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("access_token", pageToken)

	var endpoint string
	if isVideo {
		endpoint = fmt.Sprintf("%s/%s/videos", a.config.FacebookGraphURL, creds.FacebookPageID)
		params.Set("file_url", mediaURL)
		params.Set("description", caption)
	} else {
		endpoint = fmt.Sprintf("%s/%s/photos", a.config.FacebookGraphURL, creds.FacebookPageID)
		params.Set("url", mediaURL)
		params.Set("caption", caption)
	}

	return a.postForm(ctx, endpoint, params)
}

// pageAccessToken exchanges the user token for the page token via /me/accounts
func (a *FacebookAdapter) pageAccessToken(ctx context.Context, creds PlatformCredentials) (string, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?access_token=%s", a.config.FacebookGraphURL, url.QueryEscape(creds.FacebookAccessToken))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to list facebook pages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", graphError(resp)
	}

	var accounts graphAccountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return "", fmt.Errorf("failed to decode facebook accounts response: %w", err)
	}

	for _, page := range accounts.Data {
		if page.ID == creds.FacebookPageID {
			return page.AccessToken, nil
		}
	}

	return "", fmt.Errorf("facebook page %s not found among user pages", creds.FacebookPageID)
}

func (a *FacebookAdapter) postForm(ctx context.Context, endpoint string, params url.Values) error {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to facebook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return graphError(resp)
	}

	return nil
}

func graphError(resp *http.Response) error {
	var ge graphErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&ge); err == nil && ge.Error.Message != "" {
		return fmt.Errorf("graph API error (%d): %s", resp.StatusCode, ge.Error.Message)
	}
	return fmt.Errorf("graph API returned status %d", resp.StatusCode)
}

// InstagramAdapter posts to an Instagram business account through the Graph
// API two-step container/publish flow. Videos are published as reels.
type InstagramAdapter struct {
	config *config.SocialConfig
	client *http.Client
}

// NewInstagramAdapter creates a new Instagram adapter
func NewInstagramAdapter(cfg *config.SocialConfig) *InstagramAdapter {
	return &InstagramAdapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.PostTimeout},
	}
}

type instagramContainerResponse struct {
	ID string `json:"id"`
}

// Post publishes the media to the user's Instagram business account
func (a *InstagramAdapter) Post(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) error {
	if creds.FacebookAccessToken == "" || creds.InstagramBusinessID == "" {
		return fmt.Errorf("instagram credentials are not configured")
	}

	containerID, err := a.createContainer(ctx, creds, mediaURL, caption, isVideo)
	if err != nil {
		return err
	}

	return a.publishContainer(ctx, creds, containerID)
}

func (a *InstagramAdapter) createContainer(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media", a.config.FacebookGraphURL, creds.InstagramBusinessID)

	params := url.Values{}
	params.Set("access_token", creds.FacebookAccessToken)
	params.Set("caption", caption)
	if isVideo {
		params.Set("media_type", "REELS")
		params.Set("video_url", mediaURL)
	} else {
		params.Set("image_url", mediaURL)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create instagram container: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", graphError(resp)
	}

	var container instagramContainerResponse
	if err := json.NewDecoder(resp.Body).Decode(&container); err != nil {
		return "", fmt.Errorf("failed to decode instagram container response: %w", err)
	}
	if container.ID == "" {
		return "", fmt.Errorf("instagram container response has no id")
	}

	return container.ID, nil
}

func (a *InstagramAdapter) publishContainer(ctx context.Context, creds PlatformCredentials, containerID string) error {
	endpoint := fmt.Sprintf("%s/%s/media_publish", a.config.FacebookGraphURL, creds.InstagramBusinessID)

	params := url.Values{}
	params.Set("access_token", creds.FacebookAccessToken)
	params.Set("creation_id", containerID)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish instagram container: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return graphError(resp)
	}

	return nil
}
