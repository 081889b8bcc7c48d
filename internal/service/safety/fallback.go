package safety

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
)

// harmfulWords is the local moderation pattern list. Matches are whole-word
// to avoid flagging text like "skill" or "hurtle".
var harmfulWords = []string{
	"hate", "kill", "hurt", "violence",
	"drug", "illegal", "weapon",
}

// keywordModerator is the deterministic moderation fallback: self-harm
// signals come from the crisis detector's immediate-risk list, generic
// harmful content from a small whole-word automaton. No match means safe.
type keywordModerator struct {
	detector *crisis.Detector
	harmful  ahocorasick.AhoCorasick
}

func newKeywordModerator(detector *crisis.Detector) *keywordModerator {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return &keywordModerator{
		detector: detector,
		harmful:  builder.Build(harmfulWords),
	}
}

func (m *keywordModerator) moderate(text string) Verdict {
	categories := make(map[string]bool)

	if m.detector.Assess(text).ImmediateCrisis {
		categories["self-harm"] = true
	}
	if len(m.harmful.FindAll(strings.ToLower(text))) > 0 {
		categories["harmful"] = true
	}

	flagged := len(categories) > 0
	return Verdict{
		Flagged:    flagged,
		Categories: categories,
		Safe:       !flagged,
		Fallback:   true,
	}
}
