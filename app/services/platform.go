// Package services provides external service integrations and technical concerns like platform clients and tokens
package services

import (
	"context"
	"fmt"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
)

// PlatformCredentials bundles the already-refreshed tokens a platform client
// needs for one post. Token acquisition and refresh happen elsewhere.
type PlatformCredentials struct {
	FacebookAccessToken string
	FacebookPageID      string
	InstagramBusinessID string

	TwitterOAuthToken       string
	TwitterOAuthTokenSecret string

	LinkedInAccessToken string
	LinkedInProfileID   string

	GoogleRefreshToken string
	GoogleAccountID    string
	GoogleLocationID   string
}

// CredentialsForUser collects the credential columns of a user
func CredentialsForUser(user *models.User) PlatformCredentials {
	return PlatformCredentials{
		FacebookAccessToken:     utils.DerefString(user.FacebookAccessToken),
		FacebookPageID:          utils.DerefString(user.FacebookPageID),
		InstagramBusinessID:     utils.DerefString(user.InstagramBusinessID),
		TwitterOAuthToken:       utils.DerefString(user.TwitterOAuthToken),
		TwitterOAuthTokenSecret: utils.DerefString(user.TwitterOAuthTokenSecret),
		LinkedInAccessToken:     utils.DerefString(user.LinkedInAccessToken),
		LinkedInProfileID:       utils.DerefString(user.LinkedInProfileID),
		GoogleRefreshToken:      utils.DerefString(user.GoogleRefreshToken),
		GoogleAccountID:         utils.DerefString(user.GoogleAccountID),
		GoogleLocationID:        utils.DerefString(user.GoogleLocationID),
	}
}

// PlatformAdapter posts one piece of content to one network. IsVideo tells
// the adapter whether the media URL points at a video asset.
type PlatformAdapter interface {
	Post(ctx context.Context, creds PlatformCredentials, mediaURL, caption string, isVideo bool) error
}

// AdapterRegistry maps network bits to their platform adapters
type AdapterRegistry struct {
	adapters map[models.Network]PlatformAdapter
}

// NewAdapterRegistry creates an empty adapter registry
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[models.Network]PlatformAdapter),
	}
}

// Register binds an adapter to a network bit
func (r *AdapterRegistry) Register(n models.Network, adapter PlatformAdapter) {
	r.adapters[n] = adapter
}

// For returns the adapter for a network. A missing adapter is a
// configuration error, reported as a value so dispatch records it as that
// network's failure instead of aborting the fan-out.
func (r *AdapterRegistry) For(n models.Network) (PlatformAdapter, error) {
	adapter, ok := r.adapters[n]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for network %s", n)
	}
	return adapter, nil
}

// Networks lists the networks that have adapters registered
func (r *AdapterRegistry) Networks() []models.Network {
	var out []models.Network
	for _, n := range models.AllNetworks {
		if _, ok := r.adapters[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
