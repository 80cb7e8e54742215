package plm

import (
	"strings"

	"github.com/samber/lo"
)

// Category is a bucket label derived from the row title.
type Category string

const (
	VOC    Category = "VOC"
	MR     Category = "MR"
	Others Category = "Others"
)

// Categories is the display order.
var Categories = []Category{VOC, MR, Others}

// Label is the heading used when presenting a bucket.
func (c Category) Label() string {
	if c == Others {
		return "Others"
	}
	return string(c) + " PLM's"
}

// IsVOC matches "VOC" anywhere in the title, case-sensitive.
func IsVOC(r Row) bool { return strings.Contains(r.Title, "VOC") }

// IsMR matches "MR" anywhere in the title, case-sensitive.
func IsMR(r Row) bool { return strings.Contains(r.Title, "MR") }

// IsOther holds when neither keyword matches.
func IsOther(r Row) bool { return !IsVOC(r) && !IsMR(r) }

// Predicate returns the membership test for a bucket.
func (c Category) Predicate() func(Row) bool {
	switch c {
	case VOC:
		return IsVOC
	case MR:
		return IsMR
	default:
		return IsOther
	}
}

// Buckets holds the rows of each category. VOC and MR are independent
// predicates, so a title containing both keywords appears in both buckets
// and the bucket sizes may add up to more than the dataset. Others is the
// complement of VOC or MR.
type Buckets map[Category]Dataset

// Classify splits ds into the three buckets, keeping row order.
func Classify(ds Dataset) Buckets {
	b := make(Buckets, len(Categories))
	for _, c := range Categories {
		pred := c.Predicate()
		b[c] = lo.Filter(ds, func(r Row, _ int) bool { return pred(r) })
	}
	return b
}

// Overlap counts rows that sit in both VOC and MR.
func Overlap(ds Dataset) int {
	return lo.CountBy(ds, func(r Row) bool { return IsVOC(r) && IsMR(r) })
}
