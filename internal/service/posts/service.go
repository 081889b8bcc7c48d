// Package posts runs the anonymous community feed: short-lived posts,
// anonymous support reactions and aggregate community stats.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/haven-space/sanctum-backend/internal/model/post"
	"github.com/haven-space/sanctum-backend/internal/model/support"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	"github.com/haven-space/sanctum-backend/internal/store"
)

// Validation and policy errors surfaced to the transport layer.
var (
	ErrEmptyContent   = errors.New("content is required")
	ErrContentTooLong = fmt.Errorf("content must be %d characters or less", post.MaxContentLength)
	ErrBlocked        = errors.New("content violates community guidelines")
	ErrNotFound       = errors.New("post not found or expired")
)

// DefaultFeeling labels posts submitted without a feeling tag.
const DefaultFeeling = "anonymous"

// SubmitResult is a created post plus the optional support block attached
// when crisis signals were detected.
type SubmitResult struct {
	Post             post.Public     `json:"post"`
	SupportResources *support.Bundle `json:"supportResources,omitempty"`
}

// Stats is the anonymous community aggregate.
type Stats struct {
	TotalPosts         int            `json:"totalPosts"`
	TotalSupport       int            `json:"totalSupport"`
	PostsToday         int            `json:"postsToday"`
	MostCommonFeelings map[string]int `json:"mostCommonFeelings"`
	LastUpdated        time.Time      `json:"lastUpdated"`
}

// Service wires the gate and the ephemeral store into the feed flow.
type Service struct {
	store store.Store
	gate  *safety.Service
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

func NewService(st store.Store, gate *safety.Service, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		store: st,
		gate:  gate,
		ttl:   ttl,
		log:   log.With("service", "posts"),
		now:   time.Now,
	}
}

// SetClock replaces the time source. Tests use it.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Submit validates, moderates and stores a post. Crisis signals never
// block the post; they flag it and attach support resources to the result.
func (s *Service) Submit(ctx context.Context, content, feeling string) (*SubmitResult, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > post.MaxContentLength {
		return nil, ErrContentTooLong
	}

	verdict := s.gate.Moderate(ctx, trimmed)
	if !s.gate.AllowPublic(verdict) {
		s.log.Info("post blocked by moderation", "fallbackVerdict", verdict.Fallback)
		return nil, ErrBlocked
	}

	assessment := s.gate.DetectCrisis(trimmed)

	p := post.Post{
		ID:             uuid.NewString(),
		Content:        trimmed,
		Feeling:        normalizeFeeling(feeling),
		Timestamp:      s.now().UTC(),
		SupportCount:   0,
		CrisisDetected: assessment.NeedsSupport,
		Severity:       assessment.Severity,
	}

	if err := s.store.Put(ctx, store.NamespacePosts, p.ID, p, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}

	result := &SubmitResult{Post: p.PublicView(false)}
	if assessment.NeedsSupport {
		bundle := support.PostSupport(assessment.ImmediateCrisis)
		result.SupportResources = &bundle
	}
	return result, nil
}

// List returns the newest posts first, sanitized for the anonymous feed.
// Crisis metadata rides along only when includeSupport is set.
func (s *Service) List(ctx context.Context, limit int, includeSupport bool) ([]post.Public, error) {
	if limit <= 0 {
		limit = 20
	}

	records, err := s.store.ScanAll(ctx, store.NamespacePosts)
	if err != nil {
		return nil, err
	}

	feed := make([]post.Public, 0, limit)
	for _, record := range records {
		if len(feed) == limit {
			break
		}
		var p post.Post
		if err := record.Decode(&p); err != nil {
			s.log.Warn("skipping undecodable post record", "key", record.Key, "error", err)
			continue
		}
		feed = append(feed, p.PublicView(includeSupport))
	}
	return feed, nil
}

// Support adds one anonymous reaction and returns the new count. The
// post's remaining lifetime is untouched, reacting does not keep a post
// alive past its hour.
func (s *Service) Support(ctx context.Context, postID string) (int64, error) {
	count, err := s.store.IncrementField(ctx, store.NamespacePosts, postID, "supportCount")
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add support: %w", err)
	}
	return count, nil
}

// Stats aggregates the live feed into anonymous community numbers.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.store.ScanAll(ctx, store.NamespacePosts)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	stats := &Stats{
		MostCommonFeelings: make(map[string]int),
		LastUpdated:        now,
	}

	for _, record := range records {
		var p post.Post
		if err := record.Decode(&p); err != nil {
			continue
		}
		stats.TotalPosts++
		stats.TotalSupport += p.SupportCount
		if sameDay(p.Timestamp.UTC(), now) {
			stats.PostsToday++
		}
		stats.MostCommonFeelings[normalizeFeeling(p.Feeling)]++
	}
	return stats, nil
}

func normalizeFeeling(feeling string) string {
	feeling = strings.TrimSpace(feeling)
	if feeling == "" {
		return DefaultFeeling
	}
	return strings.ToLower(feeling)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
