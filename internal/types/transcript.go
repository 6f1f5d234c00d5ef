// Package types provides type definitions for ATS records and interview data
// shared across the candidate-summary system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Transcript is an interview transcript normalized for prompt assembly,
// whatever its origin (Fireflies meeting or Quil note).
type Transcript struct {
	Title   string
	Content string
}

// SourcesUsed records which optional inputs made it into the generation
// prompt. The same shape is returned by the generate endpoint, merged into
// worker audit records, and rendered into tracking notes.
type SourcesUsed struct {
	Resume    bool `json:"resume" firestore:"resume"`
	AnnaAI    bool `json:"anna_ai" firestore:"anna_ai"`
	Quil      bool `json:"quil" firestore:"quil"`
	Fireflies bool `json:"fireflies" firestore:"fireflies"`
}

// Names returns the enabled sources as display labels, in a fixed order.
func (s SourcesUsed) Names() []string {
	var names []string
	if s.Resume {
		names = append(names, "Resume")
	}
	if s.AnnaAI {
		names = append(names, "Anna Ai")
	}
	if s.Quil {
		names = append(names, "Quil")
	}
	if s.Fireflies {
		names = append(names, "Fireflies")
	}
	return names
}

// Merge ors in the flags reported by another source set.
func (s *SourcesUsed) Merge(other SourcesUsed) {
	s.Resume = s.Resume || other.Resume
	s.AnnaAI = s.AnnaAI || other.AnnaAI
	s.Quil = s.Quil || other.Quil
	s.Fireflies = s.Fireflies || other.Fireflies
}
