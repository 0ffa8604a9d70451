package reconciler

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/relations"
)

// StrategyType represents the type of duplicate-resolution strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the title-cased name of the strategy type.
func (s StrategyType) Name() string {
	return cases.Title(language.English).String(strings.ReplaceAll(s.String(), "-", " "))
}

const (
	// StrategyTypeTargetGender prefers the term agreeing with the target's gender.
	StrategyTypeTargetGender StrategyType = "target-gender"
	// StrategyTypeSourcePriority prefers one representation over the other.
	StrategyTypeSourcePriority StrategyType = "source-priority"
)

// Strategy decides which of two candidates describing the same
// relationship survives deduplication.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Resolve picks the surviving candidate. a was seen first. target is
	// the related contact, zero when the reference is unresolved.
	Resolve(a, b Candidate, target graph.Contact) Candidate
}

// baseStrategy holds the rule every strategy shares: a gendered term
// carries more information than the neutral one, whichever came first.
type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// preferGendered returns the gendered candidate when exactly one is gendered.
func preferGendered(a, b Candidate) (Candidate, bool) {
	ag, bg := a.Gender.Known(), b.Gender.Known()
	switch {
	case ag && !bg:
		return a, true
	case bg && !ag:
		return b, true
	case !ag && !bg, a.Gender == b.Gender:
		return a, true
	}
	return Candidate{}, false
}

// TargetGenderStrategy settles conflicting gendered terms by the related
// contact's recorded gender, falling back to the list representation.
type TargetGenderStrategy struct {
	baseStrategy
}

// NewTargetGenderStrategy creates the default strategy.
func NewTargetGenderStrategy() Strategy {
	return &TargetGenderStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeTargetGender,
			description: "Gendered terms win; conflicts follow the related contact's gender, then the list",
		},
	}
}

// Resolve implements Strategy.
func (s *TargetGenderStrategy) Resolve(a, b Candidate, target graph.Contact) Candidate {
	if c, ok := preferGendered(a, b); ok {
		return c
	}
	if target.Gender == relations.Male || target.Gender == relations.Female {
		if b.Gender == target.Gender {
			return b
		}
		if a.Gender == target.Gender {
			return a
		}
	}
	if b.Source == SourceList && a.Source != SourceList {
		return b
	}
	return a
}

// SourcePriorityStrategy settles conflicting gendered terms in favor of
// one representation regardless of the related contact's gender.
type SourcePriorityStrategy struct {
	baseStrategy
	preferred Source
}

// NewSourcePriorityStrategy creates a strategy that trusts preferred.
func NewSourcePriorityStrategy(preferred Source) Strategy {
	return &SourcePriorityStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSourcePriority,
			description: "Gendered terms win; conflicts follow the " + preferred.String(),
		},
		preferred: preferred,
	}
}

// Resolve implements Strategy.
func (s *SourcePriorityStrategy) Resolve(a, b Candidate, _ graph.Contact) Candidate {
	if c, ok := preferGendered(a, b); ok {
		return c
	}
	if b.Source == s.preferred && a.Source != s.preferred {
		return b
	}
	return a
}
