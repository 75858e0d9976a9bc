package facematch

import (
	"fmt"
	"log"
	"sort"

	"github.com/kozaktomas/attendance-tracker/internal/constants"
)

// Evaluate finds the known identity closest to descriptor.
//
// Candidates are identities closer than MatchDistanceThreshold. The closest
// candidate wins, ties go to the earliest entry in known. The winner is only
// accepted when its confidence (1 - distance) exceeds AcceptConfidenceThreshold;
// otherwise the face is Unknown.
//
// A descriptor that cannot be compared against every known identity fails the
// whole evaluation with ErrDimensionMismatch.
func Evaluate(descriptor Descriptor, known []KnownIdentity) (MatchResult, error) {
	if len(known) == 0 {
		return Unknown(), nil
	}

	bestIndex := -1
	bestDistance := 0.0

	for i := range known {
		d, err := EuclideanDistance(descriptor, known[i].Descriptor)
		if err != nil {
			return Unknown(), fmt.Errorf("compare with %s: %w", known[i].Name, err)
		}
		if d >= constants.MatchDistanceThreshold {
			continue
		}
		// Strict comparison keeps the first of equally distant candidates.
		if bestIndex == -1 || d < bestDistance {
			bestIndex = i
			bestDistance = d
		}
	}

	if bestIndex == -1 {
		return Unknown(), nil
	}

	result := Identified(known[bestIndex].Name, bestDistance)
	if result.Confidence <= constants.AcceptConfidenceThreshold {
		return Unknown(), nil
	}
	return result, nil
}

// RecognizeFrame evaluates every descriptor of a frame independently.
// The result slice is parallel to descriptors. A face that fails evaluation
// is reported and treated as Unknown without affecting the others.
func RecognizeFrame(descriptors []Descriptor, known []KnownIdentity) []MatchResult {
	results := make([]MatchResult, len(descriptors))
	for i, descriptor := range descriptors {
		result, err := Evaluate(descriptor, known)
		if err != nil {
			log.Printf("Error matching face %d: %v", i, err)
			result = Unknown()
		}
		results[i] = result
	}
	return results
}

// Candidate is a known identity together with its distance to a probe descriptor.
type Candidate struct {
	Identity KnownIdentity
	Distance float64
}

// Rank returns up to limit known identities ordered by distance to descriptor,
// closest first, keeping library order between equal distances. Identities that
// cannot be compared are skipped. limit <= 0 returns all of them.
func Rank(descriptor Descriptor, known []KnownIdentity, limit int) []Candidate {
	var out []Candidate
	for _, k := range known {
		d, err := EuclideanDistance(descriptor, k.Descriptor)
		if err != nil {
			continue
		}
		out = append(out, Candidate{Identity: k, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
