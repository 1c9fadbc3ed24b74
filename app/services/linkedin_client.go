package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/socialbucket/socialbucket/config"
)

// LinkedInAdapter posts to a LinkedIn profile through the three step
// registerUpload / binary upload / ugcPost flow.
type LinkedInAdapter struct {
	config *config.SocialConfig
	client *http.Client
}

// NewLinkedInAdapter creates a new LinkedIn adapter
func NewLinkedInAdapter(cfg *config.SocialConfig) *LinkedInAdapter {
	return &LinkedInAdapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.PostTimeout},
	}
}

type linkedInRegisterResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

// Post publishes the media to the user's LinkedIn profile
func (a *LinkedInAdapter) Post(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) error {
	if creds.LinkedInAccessToken == "" || creds.LinkedInProfileID == "" {
		return fmt.Errorf("linkedin credentials are not configured")
	}

	asset, uploadURL, err := a.registerUpload(ctx, creds)
	if err != nil {
		return err
	}

	if err := a.uploadMedia(ctx, creds, uploadURL, mediaURL); err != nil {
		return err
	}

	return a.createPost(ctx, creds, asset, caption)
}

// registerUpload reserves an asset slot and returns its upload URL
func (a *LinkedInAdapter) registerUpload(ctx context.Context, creds PlatformCredentials) (asset, uploadURL string, err error) {
	owner := fmt.Sprintf("urn:li:person:%s", creds.LinkedInProfileID)
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   owner,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal register upload request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/assets?action=registerUpload", a.config.LinkedInAPIURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	a.setHeaders(req, creds)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to register linkedin upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("linkedin register upload returned status %d", resp.StatusCode)
	}

	var register linkedInRegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&register); err != nil {
		return "", "", fmt.Errorf("failed to decode register upload response: %w", err)
	}

	for _, mechanism := range register.Value.UploadMechanism {
		if mechanism.UploadURL != "" {
			return register.Value.Asset, mechanism.UploadURL, nil
		}
	}

	return "", "", fmt.Errorf("linkedin register upload response has no upload URL")
}

// uploadMedia streams the media bytes into the reserved asset slot
func (a *LinkedInAdapter) uploadMedia(ctx context.Context, creds PlatformCredentials, uploadURL, mediaURL string) error {
	fetchReq, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	fetchResp, err := a.client.Do(fetchReq)
	if err != nil {
		return fmt.Errorf("failed to fetch media for linkedin upload: %w", err)
	}
	defer fetchResp.Body.Close()

	if fetchResp.StatusCode != http.StatusOK {
		return fmt.Errorf("media fetch returned status %d", fetchResp.StatusCode)
	}

	media, err := io.ReadAll(fetchResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read media bytes: %w", err)
	}

	uploadReq, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, bytes.NewReader(media))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	uploadReq.Header.Set("Authorization", "Bearer "+creds.LinkedInAccessToken)

	uploadResp, err := a.client.Do(uploadReq)
	if err != nil {
		return fmt.Errorf("failed to upload media to linkedin: %w", err)
	}
	defer uploadResp.Body.Close()

	if uploadResp.StatusCode != http.StatusOK && uploadResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("linkedin media upload returned status %d", uploadResp.StatusCode)
	}

	return nil
}

// createPost publishes the uploaded asset as a ugcPost
func (a *LinkedInAdapter) createPost(ctx context.Context, creds PlatformCredentials, asset, caption string) error {
	author := fmt.Sprintf("urn:li:person:%s", creds.LinkedInProfileID)
	payload := map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": caption},
				"shareMediaCategory": "IMAGE",
				"media": []map[string]any{{
					"status": "READY",
					"media":  asset,
				}},
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ugc post request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/ugcPosts", a.config.LinkedInAPIURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	a.setHeaders(req, creds)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create linkedin post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("linkedin ugc post returned status %d", resp.StatusCode)
	}

	return nil
}

func (a *LinkedInAdapter) setHeaders(req *http.Request, creds PlatformCredentials) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.LinkedInAccessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
}
