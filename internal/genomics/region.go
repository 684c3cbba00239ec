// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/googlegenomics/phenics/internal/failure"
)

// Position is a 1-based coordinate on a chromosome.
type Position uint64

// Interval defines a region of genomic interest.
type Interval struct {
	// Chromosome names the reference sequence.
	Chromosome string
	// Start and End specify the closed range (1-based, both ends inclusive)
	// relative to the reference.  If End is zero, the interval is open ended.
	Start, End Position
}

// NewInterval returns the closed interval [start, end] on chromosome.
func NewInterval(chromosome string, start, end Position) Interval {
	return Interval{Chromosome: chromosome, Start: start, End: end}
}

// Bounded reports whether the interval has an upper bound.
func (iv Interval) Bounded() bool {
	return iv.End != 0
}

// Contains reports whether pos lies inside the interval.
func (iv Interval) Contains(pos Position) bool {
	if pos < iv.Start {
		return false
	}
	return !iv.Bounded() || pos <= iv.End
}

// After reports whether pos lies strictly after the end of a bounded
// interval.
func (iv Interval) After(pos Position) bool {
	return iv.Bounded() && pos > iv.End
}

// HalfOpen returns the 0-based half-open coordinates of the interval, with
// ceiling standing in for the end of an open interval.
func (iv Interval) HalfOpen(ceiling int) (int, int) {
	beg := 0
	if iv.Start > 0 {
		beg = int(iv.Start - 1)
	}
	if !iv.Bounded() || uint64(iv.End) > uint64(ceiling) {
		return beg, ceiling
	}
	return beg, int(iv.End)
}

func (iv Interval) String() string {
	if !iv.Bounded() {
		return fmt.Sprintf("%s:%d-", iv.Chromosome, iv.Start)
	}
	return fmt.Sprintf("%s:%d-%d", iv.Chromosome, iv.Start, iv.End)
}

// ParseInterval parses a locator of the form <chrom>:<start>-<end> (1-based,
// inclusive).  The forms <chrom>, <chrom>:<start> and <chrom>:<start>- are
// also accepted and yield open intervals.
func ParseInterval(input string) (Interval, error) {
	name, limits, hasLimits := strings.Cut(input, ":")
	if name == "" {
		return Interval{}, failure.Newf(failure.InvalidInput, "cannot parse %q as a region: no chromosome", input)
	}
	iv := Interval{Chromosome: name, Start: 1}
	if !hasLimits {
		return iv, nil
	}

	first, last, _ := strings.Cut(limits, "-")
	start, err := parsePosition(first)
	if err != nil {
		return Interval{}, fmt.Errorf("parsing start of %q: %w", input, err)
	}
	iv.Start = start
	if last != "" {
		end, err := parsePosition(last)
		if err != nil {
			return Interval{}, fmt.Errorf("parsing end of %q: %w", input, err)
		}
		if end < start {
			return Interval{}, failure.Newf(failure.InvalidInput, "cannot parse %q as a region: start > end", input)
		}
		iv.End = end
	}
	return iv, nil
}

func parsePosition(input string) (Position, error) {
	n, err := strconv.ParseUint(strings.ReplaceAll(input, ",", ""), 10, 64)
	if err != nil {
		return 0, failure.Wrap(failure.NumericParse, "parsing position", err)
	}
	if n == 0 {
		return 0, failure.New(failure.InvalidInput, "positions are 1-based")
	}
	return Position(n), nil
}
