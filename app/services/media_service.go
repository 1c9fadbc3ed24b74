package services

import (
	"fmt"
	"strings"

	"github.com/socialbucket/socialbucket/config"
)

// MediaService resolves the stored media reference of a content item into a
// URL the platform APIs can fetch.
type MediaService interface {
	PublicURL(filePath string) string
}

// MediaServiceImpl implements MediaService. Absolute URLs pass through;
// relative paths resolve against the CDN base when one is configured, the
// local serving base otherwise.
type MediaServiceImpl struct {
	config *config.MediaConfig
}

// NewMediaService creates a new media service
func NewMediaService(cfg *config.MediaConfig) MediaService {
	return &MediaServiceImpl{config: cfg}
}

// PublicURL resolves a stored media reference to a public URL
func (s *MediaServiceImpl) PublicURL(filePath string) string {
	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") {
		return filePath
	}

	base := s.config.CDNBaseURL
	if base == "" {
		base = s.config.LocalBaseURL
	}

	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(filePath, "/"))
}
