package library

import "github.com/kozaktomas/attendance-tracker/internal/facematch"

// IdentitySummary describes one person in a loaded library.
type IdentitySummary struct {
	Name       string   `json:"name"`
	References int      `json:"references"`
	Sources    []string `json:"sources,omitempty"`
}

// Summarize groups known identities by name, in order of first appearance.
func Summarize(known []facematch.KnownIdentity) []IdentitySummary {
	index := make(map[string]int)
	var out []IdentitySummary
	for _, k := range known {
		i, ok := index[k.Name]
		if !ok {
			i = len(out)
			index[k.Name] = i
			out = append(out, IdentitySummary{Name: k.Name})
		}
		out[i].References++
		if k.Source != "" {
			out[i].Sources = append(out[i].Sources, k.Source)
		}
	}
	return out
}
