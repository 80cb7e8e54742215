package plm

import (
	"strings"

	"github.com/samber/lo"
)

// ProtocolKeyword marks rows handled through the data protocol.
const ProtocolKeyword = "/data protocol/"

// Metrics are the derived counts of one bucket. SolvedWithReference never
// exceeds Solved.
type Metrics struct {
	Analysed            int `json:"analysed"`
	Solved              int `json:"solved"`
	SolvedWithReference int `json:"solved_with_reference"`
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

// IsSolved reports whether the resolution mentions the protocol keyword, case-insensitive.
func IsSolved(r Row) bool { return containsFold(r.ResolvedBy, ProtocolKeyword) }

// IsAnalysedRaw reports whether the comment mentions the protocol keyword, case-insensitive.
func IsAnalysedRaw(r Row) bool { return containsFold(r.Comment, ProtocolKeyword) }

// IsAnalysed is analysed but not (yet) solved.
func IsAnalysed(r Row) bool { return IsAnalysedRaw(r) && !IsSolved(r) }

// HasReference reports whether a CL number is attached.
func HasReference(r Row) bool { return r.CLNumber != nil }

// ComputeCounts derives the metrics of one subset.
func ComputeCounts(subset Dataset) Metrics {
	return Metrics{
		Analysed:            lo.CountBy(subset, IsAnalysed),
		Solved:              lo.CountBy(subset, IsSolved),
		SolvedWithReference: lo.CountBy(subset, func(r Row) bool { return IsSolved(r) && HasReference(r) }),
	}
}

// Summary holds bucket sizes and metrics for a whole dataset.
type Summary struct {
	Total   int                  `json:"total"`
	Overlap int                  `json:"overlap"`
	Sizes   map[Category]int     `json:"sizes"`
	Metrics map[Category]Metrics `json:"metrics"`
}

// Summarize classifies ds and computes per-bucket counts.
func Summarize(ds Dataset) Summary {
	buckets := Classify(ds)
	s := Summary{
		Total:   len(ds),
		Overlap: Overlap(ds),
		Sizes:   make(map[Category]int, len(Categories)),
		Metrics: make(map[Category]Metrics, len(Categories)),
	}
	for _, c := range Categories {
		s.Sizes[c] = len(buckets[c])
		s.Metrics[c] = ComputeCounts(buckets[c])
	}
	return s
}
