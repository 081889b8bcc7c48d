package chat

// Exercise is a guided breathing routine offered as an in-the-moment
// coping tool.
type Exercise struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Duration    string   `json:"duration"`
}

// Technique is a grounding practice for anchoring attention in the
// present.
type Technique struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Type        string   `json:"type"`
}

var breathingExercises = []Exercise{
	{
		Name:        "4-7-8 Breathing",
		Description: "A calming technique to reduce anxiety",
		Steps: []string{
			"Exhale completely through your mouth",
			"Close your mouth and inhale through your nose for 4 counts",
			"Hold your breath for 7 counts",
			"Exhale through your mouth for 8 counts",
			"Repeat 3-4 times",
		},
		Duration: "2-3 minutes",
	},
	{
		Name:        "Box Breathing",
		Description: "Used by Navy SEALs for stress management",
		Steps: []string{
			"Inhale for 4 counts",
			"Hold for 4 counts",
			"Exhale for 4 counts",
			"Hold for 4 counts",
			"Repeat 4-6 times",
		},
		Duration: "2-4 minutes",
	},
	{
		Name:        "Belly Breathing",
		Description: "Deep breathing to activate relaxation response",
		Steps: []string{
			"Place one hand on chest, one on belly",
			"Breathe slowly through your nose",
			"Feel your belly rise while chest stays still",
			"Exhale slowly through pursed lips",
			"Continue for 5-10 breaths",
		},
		Duration: "3-5 minutes",
	},
}

var groundingTechniques = []Technique{
	{
		Name:        "5-4-3-2-1 Technique",
		Description: "Use your senses to ground yourself in the present",
		Steps: []string{
			"Name 5 things you can see",
			"Name 4 things you can touch",
			"Name 3 things you can hear",
			"Name 2 things you can smell",
			"Name 1 thing you can taste",
		},
		Type: "sensory",
	},
	{
		Name:        "Physical Grounding",
		Description: "Use physical sensations to anchor yourself",
		Steps: []string{
			"Feel your feet on the ground",
			"Press your palms together firmly",
			"Hold a cold object or ice cube",
			"Stretch your arms above your head",
			"Clench and release your fists",
		},
		Type: "physical",
	},
	{
		Name:        "Mental Grounding",
		Description: "Use your mind to stay present",
		Steps: []string{
			"Count backwards from 100 by 7s",
			"Name all the animals you can think of",
			"Recite the alphabet backwards",
			"Describe your surroundings in detail",
			"Plan your next meal in detail",
		},
		Type: "mental",
	},
}

// BreathingExercise picks one breathing routine at random.
func (s *Service) BreathingExercise() Exercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return breathingExercises[s.rng.Intn(len(breathingExercises))]
}

// GroundingTechnique picks one grounding practice at random.
func (s *Service) GroundingTechnique() Technique {
	s.mu.Lock()
	defer s.mu.Unlock()
	return groundingTechniques[s.rng.Intn(len(groundingTechniques))]
}
