package seating

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
)

// Examinee is the token the engine places.  Key is the only field the engine
// reads; Payload is carried through untouched so callers get their own
// records back on the seats.
type Examinee struct {
	Key     int64 `json:"key"`
	Payload any   `json:"payload,omitempty"`
}

// Policy selects how the pool is ordered before it is split across rooms.
type Policy string

const (
	PolicySequential Policy = "sequential"
	PolicyRandom     Policy = "random"
	PolicyCustom     Policy = "custom"
)

// ParsePolicy accepts the policy names used by the API and by stored plans.
// "custom_layout" is the name older plans were saved with.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return PolicySequential, nil
	case "random":
		return PolicyRandom, nil
	case "custom", "custom_layout":
		return PolicyCustom, nil
	}
	return "", ErrUnknownPolicy
}

// Order returns a reordered copy of pool.  A non-nil seed makes the random
// policy reproducible; the same seed and pool always give the same order.
func Order(pool []Examinee, policy Policy, seed *int64) ([]Examinee, error) {
	out := slices.Clone(pool)
	switch policy {
	case PolicySequential:
		slices.SortStableFunc(out, func(a, b Examinee) int { return cmp.Compare(a.Key, b.Key) })
	case PolicyRandom:
		shuffle(out, newIntN(seed))
	case PolicyCustom:
		// caller already arranged the pool
	default:
		return nil, ErrUnknownPolicy
	}
	return out, nil
}

// shuffle is Fisher–Yates: for i from len-1 down to 1, swap i with a
// uniformly chosen index in [0, i].
func shuffle(xs []Examinee, intN func(int) int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := intN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

func newIntN(seed *int64) func(int) int {
	if seed == nil {
		return rand.IntN
	}
	r := rand.New(rand.NewPCG(uint64(*seed), uint64(*seed)^0x9e3779b97f4a7c15))
	return r.IntN
}
