// Package safety is the content gate every submission passes through. It
// runs two independent checks: an external moderation classifier with a
// deterministic local fallback, and purely local crisis detection. The two
// results are never merged; moderation decides whether content is stored,
// crisis severity decides which support resources ride along.
package safety

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
)

// ModerationClient is the slice of the OpenAI client the gate consumes;
// tests substitute fakes.
type ModerationClient interface {
	Moderations(ctx context.Context, request openai.ModerationRequest) (openai.ModerationResponse, error)
}

// Verdict is the moderation outcome. Fallback marks results produced by the
// local heuristic so callers can tell authoritative from degraded.
type Verdict struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
	Safe       bool            `json:"safe"`
	Fallback   bool            `json:"fallback,omitempty"`
}

// Service bundles moderation and crisis detection behind one constructed
// dependency.
type Service struct {
	client   ModerationClient
	detector *crisis.Detector
	fallback *keywordModerator
	timeout  time.Duration
	log      *logger.Logger
}

// NewService builds the gate. A nil client keeps the gate in permanent
// local-fallback mode, which is how it runs without moderation credentials.
func NewService(client ModerationClient, detector *crisis.Detector, timeout time.Duration, log *logger.Logger) *Service {
	if detector == nil {
		detector = crisis.NewDetector()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		client:   client,
		detector: detector,
		fallback: newKeywordModerator(detector),
		timeout:  timeout,
		log:      log.With("service", "safety"),
	}
}

// Moderate classifies the text. It never returns an error: when the
// external classifier is unreachable or times out, the keyword fallback
// answers instead and the verdict says so.
func (s *Service) Moderate(ctx context.Context, text string) Verdict {
	if s.client == nil {
		return s.fallback.moderate(text)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		s.log.Warn("moderation call failed, using keyword fallback", "error", err)
		return s.fallback.moderate(text)
	}
	if len(resp.Results) == 0 {
		s.log.Warn("moderation returned no results, using keyword fallback")
		return s.fallback.moderate(text)
	}

	result := resp.Results[0]
	return Verdict{
		Flagged:    result.Flagged,
		Categories: flaggedCategories(result.Categories),
		Safe:       !result.Flagged,
	}
}

// DetectCrisis runs the local crisis assessment. No network, no failure
// mode, unaffected by moderation availability.
func (s *Service) DetectCrisis(text string) crisis.Assessment {
	return s.detector.Assess(text)
}

// AllowPublic is the policy for posts and chat messages: any unsafe verdict
// blocks.
func (s *Service) AllowPublic(v Verdict) bool {
	return v.Safe
}

// AllowJournal is the lenient policy for private reflection: only the most
// severe classes block, milder flags are tolerated.
func (s *Service) AllowJournal(v Verdict) bool {
	if v.Safe {
		return true
	}
	return !v.Categories["violence"] && !v.Categories["hate"]
}

// flaggedCategories projects the classifier's category struct onto a map
// holding only the categories that fired.
func flaggedCategories(c openai.ResultCategories) map[string]bool {
	out := make(map[string]bool)
	set := func(name string, flagged bool) {
		if flagged {
			out[name] = true
		}
	}
	set("hate", c.Hate)
	set("hate/threatening", c.HateThreatening)
	set("harassment", c.Harassment)
	set("harassment/threatening", c.HarassmentThreatening)
	set("self-harm", c.SelfHarm)
	set("self-harm/intent", c.SelfHarmIntent)
	set("self-harm/instructions", c.SelfHarmInstructions)
	set("sexual", c.Sexual)
	set("sexual/minors", c.SexualMinors)
	set("violence", c.Violence)
	set("violence/graphic", c.ViolenceGraphic)
	return out
}
