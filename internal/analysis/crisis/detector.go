// Package crisis detects crisis and distress signals in user text. Detection
// is purely local: it must keep working when every external classifier is
// down, and it must never ship user text over the network.
package crisis

import (
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Severity grades how urgently a piece of text calls for support resources.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Assessment is the crisis-detection output. It is deliberately separate
// from the moderation verdict: a message can be perfectly within policy and
// still signal a crisis.
type Assessment struct {
	ImmediateCrisis   bool     `json:"immediateCrisis"`
	EmotionalDistress bool     `json:"emotionalDistress"`
	NeedsSupport      bool     `json:"needsSupport"`
	Severity          Severity `json:"severity"`
}

// immediatePhrases flag an immediate risk to the user's safety.
var immediatePhrases = []string{
	"suicide", "kill myself", "end my life", "want to die", "hurt myself",
	"self harm", "cut myself", "overdose", "jump off", "hang myself",
	"worthless", "hopeless", "can't go on", "give up", "end it all",
}

// distressPhrases are broader emotional-distress indicators.
var distressPhrases = []string{
	"depressed", "anxiety", "panic", "overwhelmed", "alone",
	"scared", "afraid", "cry", "tears", "help me",
}

// Detector matches the phrase lists with two Aho-Corasick automatons, one
// scan per list regardless of list size.
type Detector struct {
	immediate ahocorasick.AhoCorasick
	distress  ahocorasick.AhoCorasick
}

// NewDetector compiles the built-in phrase lists.
func NewDetector() *Detector {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})

	return &Detector{
		immediate: builder.Build(immediatePhrases),
		distress:  builder.Build(distressPhrases),
	}
}

// Assess scans the text against both phrase lists. Any immediate-risk match
// yields high severity, any distress match without one yields medium,
// otherwise low.
func (d *Detector) Assess(text string) Assessment {
	normalized := normalize(text)

	hasImmediate := len(d.immediate.FindAll(normalized)) > 0
	hasDistress := len(d.distress.FindAll(normalized)) > 0

	severity := SeverityLow
	if hasImmediate {
		severity = SeverityHigh
	} else if hasDistress {
		severity = SeverityMedium
	}

	return Assessment{
		ImmediateCrisis:   hasImmediate,
		EmotionalDistress: hasDistress,
		NeedsSupport:      hasImmediate || hasDistress,
		Severity:          severity,
	}
}

// normalize lowercases and straightens curly apostrophes so "can’t go on"
// matches the pattern "can't go on".
func normalize(text string) string {
	return strings.ToLower(strings.ReplaceAll(text, "’", "'"))
}
