package predict

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// Labels assigned from the accept probability.
const (
	Accept  = "Accept"
	Review  = "Review"
	Reject  = "Reject"
	Pending = "Pending"
)

// Probability cut points. AcceptThreshold is inclusive; RejectThreshold is
// inclusive on the Reject side.
const (
	AcceptThreshold = 0.60
	RejectThreshold = 0.20
)

// Label buckets an accept probability.
func Label(p null.Float) string {
	switch {
	case !p.Valid:
		return Pending
	case p.Float64 >= AcceptThreshold:
		return Accept
	case p.Float64 > RejectThreshold:
		return Review
	}

	return Reject
}

// Comment is the reviewer-facing note for a probability, rounded to three
// decimals and printed the way the review sheets always showed it ("0.6",
// "1.0", "nan").
func Comment(p null.Float) string {
	return "Probability of Accept: " + roundedText(p)
}

func roundedText(p null.Float) string {
	if !p.Valid {
		return "nan"
	}

	// Half-way values go to the even neighbor of the scaled value
	rounded := math.RoundToEven(p.Float64*1000) / 1000
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
