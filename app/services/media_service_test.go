package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/socialbucket/socialbucket/config"
)

func TestMediaServicePublicURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.MediaConfig
		filePath string
		expected string
	}{
		{
			name:     "absolute https URL passes through",
			cfg:      config.MediaConfig{CDNBaseURL: "https://cdn.example.com"},
			filePath: "https://elsewhere.example.com/img.jpg",
			expected: "https://elsewhere.example.com/img.jpg",
		},
		{
			name:     "absolute http URL passes through",
			cfg:      config.MediaConfig{CDNBaseURL: "https://cdn.example.com"},
			filePath: "http://elsewhere.example.com/img.jpg",
			expected: "http://elsewhere.example.com/img.jpg",
		},
		{
			name:     "relative path joins CDN base",
			cfg:      config.MediaConfig{CDNBaseURL: "https://cdn.example.com"},
			filePath: "buckets/1/img.jpg",
			expected: "https://cdn.example.com/buckets/1/img.jpg",
		},
		{
			name:     "slashes are normalized",
			cfg:      config.MediaConfig{CDNBaseURL: "https://cdn.example.com/"},
			filePath: "/buckets/1/img.jpg",
			expected: "https://cdn.example.com/buckets/1/img.jpg",
		},
		{
			name:     "local base when no CDN configured",
			cfg:      config.MediaConfig{LocalBaseURL: "http://localhost:8080/media"},
			filePath: "buckets/1/img.jpg",
			expected: "http://localhost:8080/media/buckets/1/img.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media := NewMediaService(&tt.cfg)
			assert.Equal(t, tt.expected, media.PublicURL(tt.filePath))
		})
	}
}
