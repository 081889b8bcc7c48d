// Package support holds the static crisis and support resource bundles the
// services attach to responses when crisis detection fires. The entries are
// US-centric defaults mirroring common crisis lines; they augment replies
// and never replace them.
package support

// Resource names a single hotline, text line or site.
type Resource struct {
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Text      string `json:"text,omitempty"`
	Website   string `json:"website,omitempty"`
	Available string `json:"available,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Bundle is the augmentation block attached to a response.
type Bundle struct {
	Severity         string     `json:"severity,omitempty"`
	Crisis           bool       `json:"crisis,omitempty"`
	Message          string     `json:"message"`
	Resources        []Resource `json:"resources"`
	CopingStrategies []string   `json:"copingStrategies,omitempty"`
}

// CrisisAlert is the full bundle for high-severity chat messages: 24/7
// lines, emergency services and immediate coping strategies.
func CrisisAlert() Bundle {
	return Bundle{
		Severity: "high",
		Message:  "I'm concerned about what you've shared. Please know that immediate help is available.",
		Resources: []Resource{
			{Name: "National Suicide Prevention Lifeline", Phone: "988", Text: "Call or text", Available: "24/7"},
			{Name: "Crisis Text Line", Text: "Text HOME to 741741", Available: "24/7"},
			{Name: "Emergency Services", Phone: "911", Note: "For immediate danger"},
		},
		CopingStrategies: []string{
			"Take slow, deep breaths - in for 4, hold for 4, out for 6",
			"Try grounding: name 5 things you can see, 4 you can touch, 3 you can hear",
			"Reach out to a trusted friend or family member",
			"Consider going to a safe place with other people",
		},
	}
}

// GeneralSupport is the bundle for medium-severity distress.
func GeneralSupport() Bundle {
	return Bundle{
		Message: "I notice you might be going through a difficult time. Here are some resources that might help.",
		Resources: []Resource{
			{Name: "Crisis Text Line", Text: "Text HOME to 741741", Available: "24/7"},
			{Name: "Mental Health America", Website: "https://mhanational.org/finding-help", Note: "Find local resources"},
		},
		CopingStrategies: []string{
			"Try deep breathing exercises",
			"Consider journaling your thoughts",
			"Take a short walk if possible",
			"Listen to calming music",
		},
	}
}

// PostSupport is attached to post submissions that trip crisis detection.
func PostSupport(immediateCrisis bool) Bundle {
	message := "Remember that support is available if you need it."
	if immediateCrisis {
		message = "We noticed you might be going through a difficult time. Please consider reaching out for support."
	}
	return Bundle{
		Crisis:  immediateCrisis,
		Message: message,
		Resources: []Resource{
			{Name: "National Suicide Prevention Lifeline", Phone: "988", Available: "24/7"},
			{Name: "Crisis Text Line", Text: "HOME to 741741", Available: "24/7"},
			{Name: "International Association for Suicide Prevention", Website: "https://www.iasp.info/resources/Crisis_Centres/", Available: "Global resources"},
		},
	}
}

// JournalMessage tiers the supportive note returned with a journal entry.
type JournalMessage struct {
	Type        string     `json:"type"`
	Message     string     `json:"message"`
	Resources   []Resource `json:"resources,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// JournalCrisis acknowledges crisis signals in a private entry without
// blocking it.
func JournalCrisis() JournalMessage {
	return JournalMessage{
		Type:    "crisis",
		Message: "Thank you for expressing your feelings. Writing can be healing, but please remember that professional support is available if you need it.",
		Resources: []Resource{
			{Name: "National Suicide Prevention Lifeline", Phone: "988", Available: "24/7"},
			{Name: "Crisis Text Line", Text: "HOME to 741741", Available: "24/7"},
		},
	}
}

// JournalDistress is the medium-severity variant.
func JournalDistress() JournalMessage {
	return JournalMessage{
		Type:    "support",
		Message: "I notice you might be working through some difficult emotions. That takes courage. Remember that it's okay to seek support when you need it.",
		Suggestions: []string{
			"Consider sharing your feelings with a trusted friend",
			"Try some gentle self-care activities",
			"Remember that difficult emotions are temporary",
		},
	}
}

// JournalEncouragement closes the tier for untroubled entries.
func JournalEncouragement() JournalMessage {
	return JournalMessage{
		Type:    "encouragement",
		Message: "Thank you for taking time to reflect and write. Journaling is a powerful tool for processing emotions and gaining clarity.",
		Suggestions: []string{
			"Try to journal regularly, even if just for a few minutes",
			"Don't worry about perfect writing - focus on expressing yourself",
			"Consider reading past entries to see your growth",
		},
	}
}
