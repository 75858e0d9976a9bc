// Package facematch decides which known identity, if any, a detected face belongs to.
// It is pure: no I/O, no shared state.
package facematch

import "github.com/kozaktomas/attendance-tracker/internal/constants"

// Descriptor is a fixed-length face encoding produced by the embedding server.
type Descriptor []float64

// KnownIdentity is one reference descriptor for a person.
// A person may have several, each is an independent candidate.
type KnownIdentity struct {
	Name       string
	Descriptor Descriptor
	Source     string // reference image path or database id, for diagnostics only
}

// MatchStatus tags a MatchResult
type MatchStatus string

const (
	StatusIdentified MatchStatus = "identified" // Best candidate accepted
	StatusUnknown    MatchStatus = "unknown"    // No candidate, or candidate rejected
)

// MatchResult is the recognition outcome for one face.
// Name, Confidence and Distance are only meaningful when Status is StatusIdentified.
type MatchResult struct {
	Status     MatchStatus
	Name       string
	Confidence float64
	Distance   float64
}

// Unknown returns the result for an unmatched face.
func Unknown() MatchResult {
	return MatchResult{Status: StatusUnknown}
}

// Identified returns the result for an accepted match.
func Identified(name string, distance float64) MatchResult {
	return MatchResult{
		Status:     StatusIdentified,
		Name:       name,
		Confidence: 1 - distance,
		Distance:   distance,
	}
}

// IsKnown reports whether the face was matched to an identity.
func (r MatchResult) IsKnown() bool {
	return r.Status == StatusIdentified
}

// DisplayName returns the identity name, or the unknown placeholder.
func (r MatchResult) DisplayName() string {
	if !r.IsKnown() {
		return constants.UnknownName
	}
	return r.Name
}
