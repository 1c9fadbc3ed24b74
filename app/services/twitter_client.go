package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/socialbucket/socialbucket/config"
	"github.com/socialbucket/socialbucket/utils"
)

// TwitterAdapter posts tweets through the v2 API signed with OAuth 1.0a user
// context. Tweets are text only; the media URL is ignored because media
// upload needs the chunked upload endpoint, which is not wired yet.
type TwitterAdapter struct {
	config *config.SocialConfig
	client *http.Client
}

// NewTwitterAdapter creates a new Twitter adapter
func NewTwitterAdapter(cfg *config.SocialConfig) *TwitterAdapter {
	return &TwitterAdapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.PostTimeout},
	}
}

type tweetRequest struct {
	Text string `json:"text"`
}

// Post publishes the caption as a tweet, truncated to the platform limit
func (a *TwitterAdapter) Post(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) error {
	if creds.TwitterOAuthToken == "" || creds.TwitterOAuthTokenSecret == "" {
		return fmt.Errorf("twitter credentials are not configured")
	}

	text := caption
	if runes := []rune(text); len(runes) > utils.TwitterCharacterLimit {
		text = string(runes[:utils.TwitterCharacterLimit])
	}

	body, err := json.Marshal(tweetRequest{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal tweet request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/2/tweets", a.config.TwitterAPIURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", a.oauthHeader("POST", endpoint, creds))

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twitter API returned status %d", resp.StatusCode)
	}

	return nil
}

// oauthHeader builds an OAuth 1.0a Authorization header. RFC 5849 excludes
// non-form bodies from the signature base string, so the JSON payload is
// not signed.
func (a *TwitterAdapter) oauthHeader(method, endpoint string, creds PlatformCredentials) string {
	params := map[string]string{
		"oauth_consumer_key":     a.config.TwitterConsumerKey,
		"oauth_nonce":            oauthNonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", time.Now().Unix()),
		"oauth_token":            creds.TwitterOAuthToken,
		"oauth_version":          "1.0",
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", percentEncode(k), percentEncode(params[k])))
	}
	paramString := strings.Join(pairs, "&")

	base := fmt.Sprintf("%s&%s&%s", method, percentEncode(endpoint), percentEncode(paramString))
	signingKey := fmt.Sprintf("%s&%s", percentEncode(a.config.TwitterConsumerSecret), percentEncode(creds.TwitterOAuthTokenSecret))

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	params["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	keys = append(keys, "oauth_signature")
	sort.Strings(keys)

	var header []string
	for _, k := range keys {
		header = append(header, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(params[k])))
	}
	return "OAuth " + strings.Join(header, ", ")
}

func oauthNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// percentEncode applies RFC 3986 encoding as OAuth 1.0a requires
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	return encoded
}
