package services

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/socialbucket/socialbucket/config"
	"github.com/socialbucket/socialbucket/models"
)

var (
	socialPostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_posts_total",
			Help: "Total number of platform post attempts",
		},
		[]string{"network", "status"},
	)

	socialPostDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_post_duration_seconds",
			Help:    "Platform post latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"network"},
	)
)

// PostOutcome is the per-network result of one fan-out
type PostOutcome struct {
	Network  string        `json:"network"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PostContent carries the resolved content of one dispatch
type PostContent struct {
	MediaURL       string
	Caption        string
	TwitterCaption string
	IsVideo        bool
}

// SocialPosterService fans one piece of content out to the networks selected
// in a bitmask.
type SocialPosterService interface {
	PostToAll(ctx context.Context, user *models.User, targets models.NetworkMask, content PostContent) map[string]PostOutcome
}

// SocialPosterServiceImpl implements SocialPosterService
type SocialPosterServiceImpl struct {
	registry *AdapterRegistry
	config   *config.SocialConfig
}

// NewSocialPosterService creates a new poster service
func NewSocialPosterService(registry *AdapterRegistry, cfg *config.SocialConfig) SocialPosterService {
	return &SocialPosterServiceImpl{
		registry: registry,
		config:   cfg,
	}
}

// PostToAll posts to every network in the mask concurrently. Each network's
// failure is isolated into its own outcome slot and never aborts the others.
// Cancellation of ctx stops new calls from starting; calls already in flight
// run to completion under their own timeout so the outcome map stays whole.
func (s *SocialPosterServiceImpl) PostToAll(ctx context.Context, user *models.User, targets models.NetworkMask, content PostContent) map[string]PostOutcome {
	outcomes := make(map[string]PostOutcome)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	creds := CredentialsForUser(user)

	for _, network := range targets.Networks() {
		if ctx.Err() != nil {
			mu.Lock()
			outcomes[network.String()] = PostOutcome{
				Network: network.String(),
				Success: false,
				Error:   "dispatch cancelled before post started",
			}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(network models.Network) {
			defer wg.Done()

			outcome := s.postOne(ctx, network, creds, content)

			mu.Lock()
			outcomes[network.String()] = outcome
			mu.Unlock()
		}(network)
	}

	wg.Wait()
	return outcomes
}

// postOne runs a single platform call under its own timeout, detached from
// the trigger context's cancellation.
func (s *SocialPosterServiceImpl) postOne(ctx context.Context, network models.Network, creds PlatformCredentials, content PostContent) PostOutcome {
	adapter, err := s.registry.For(network)
	if err != nil {
		socialPostsTotal.WithLabelValues(network.String(), "failure").Inc()
		return PostOutcome{
			Network: network.String(),
			Success: false,
			Error:   err.Error(),
		}
	}

	caption := content.Caption
	if network == models.NetworkTwitter {
		caption = content.TwitterCaption
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PostTimeout)
	defer cancel()

	start := time.Now()
	err = adapter.Post(callCtx, creds, content.MediaURL, caption, content.IsVideo)
	elapsed := time.Since(start)

	socialPostDuration.WithLabelValues(network.String()).Observe(elapsed.Seconds())

	if err != nil {
		socialPostsTotal.WithLabelValues(network.String(), "failure").Inc()
		return PostOutcome{
			Network:  network.String(),
			Success:  false,
			Error:    err.Error(),
			Duration: elapsed,
		}
	}

	socialPostsTotal.WithLabelValues(network.String(), "success").Inc()
	return PostOutcome{
		Network:  network.String(),
		Success:  true,
		Duration: elapsed,
	}
}

// MockSocialPosterService implements SocialPosterService for testing
type MockSocialPosterService struct {
	mu    sync.Mutex
	Posts []MockPost

	// FailNetworks lists networks whose posts should fail
	FailNetworks map[models.Network]string
}

// MockPost records one mock platform call
type MockPost struct {
	Network models.Network
	UserID  uint
	Content PostContent
}

// NewMockSocialPosterService creates a new mock poster service
func NewMockSocialPosterService() *MockSocialPosterService {
	return &MockSocialPosterService{
		FailNetworks: make(map[models.Network]string),
	}
}

// PostToAll records one mock post per network in the mask
func (m *MockSocialPosterService) PostToAll(ctx context.Context, user *models.User, targets models.NetworkMask, content PostContent) map[string]PostOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := make(map[string]PostOutcome)
	for _, network := range targets.Networks() {
		m.Posts = append(m.Posts, MockPost{
			Network: network,
			UserID:  user.ID,
			Content: content,
		})

		if msg, ok := m.FailNetworks[network]; ok {
			outcomes[network.String()] = PostOutcome{Network: network.String(), Success: false, Error: msg}
			continue
		}
		outcomes[network.String()] = PostOutcome{Network: network.String(), Success: true}
	}
	return outcomes
}

// SentPosts returns all recorded mock posts
func (m *MockSocialPosterService) SentPosts() []MockPost {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockPost(nil), m.Posts...)
}
