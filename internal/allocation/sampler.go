package allocation

import (
	"math/rand/v2"
	"sort"
)

// Rand is the randomness an allocation run draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a seeded PCG source so runs can be replayed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Submission is one student's snapshot for an assessment.
type Submission struct {
	StudentEmail string
	Version      int
	URL          string
}

// Allocation is the grader to submissions mapping produced by one run.
type Allocation struct {
	// Graders lists participating graders in capacity order, including those
	// that ended up with nothing.
	Graders  []string
	Assigned map[string][]Submission
}

// Pair is one grader/submission match.
type Pair struct {
	Grader     string
	Submission Submission
}

// Pairs flattens the allocation in grader order.
func (a *Allocation) Pairs() []Pair {
	pairs := make([]Pair, 0, a.Total())
	for _, g := range a.Graders {
		for _, s := range a.Assigned[g] {
			pairs = append(pairs, Pair{Grader: g, Submission: s})
		}
	}
	return pairs
}

// Total counts assigned submissions.
func (a *Allocation) Total() int {
	n := 0
	for _, subs := range a.Assigned {
		n += len(subs)
	}
	return n
}

// Sample assigns every submission to exactly one grader. caps is not modified.
//
// Students are shuffled with rng and then stably ordered by descending
// conflict count so the most constrained are placed first. Each student goes
// to a grader drawn from the non-conflicted graders with room left, weighted
// by remaining capacity. If some student has no such grader the whole run
// fails with *UnassignableStudentError and no partial result is returned.
func Sample(caps []Capacity, conflicts ConflictIndex, submissions []Submission, rng Rand) (*Allocation, error) {
	remaining := make([]int, len(caps))
	result := &Allocation{
		Graders:  make([]string, len(caps)),
		Assigned: make(map[string][]Submission, len(caps)),
	}
	for i, c := range caps {
		remaining[i] = c.Slots
		result.Graders[i] = c.Email
	}

	students := make([]Submission, len(submissions))
	copy(students, submissions)
	rng.Shuffle(len(students), func(i, j int) {
		students[i], students[j] = students[j], students[i]
	})
	sort.SliceStable(students, func(i, j int) bool {
		return conflicts.Count(students[i].StudentEmail) > conflicts.Count(students[j].StudentEmail)
	})

	viable := make([]int, 0, len(caps))
	for _, sub := range students {
		viable = viable[:0]
		weight := 0
		for i, c := range caps {
			if remaining[i] <= 0 || conflicts.Conflicted(sub.StudentEmail, c.Email) {
				continue
			}
			viable = append(viable, i)
			weight += remaining[i]
		}
		if len(viable) == 0 {
			return nil, &UnassignableStudentError{Student: sub.StudentEmail}
		}

		chosen := pickWeighted(viable, remaining, weight, rng)
		remaining[chosen]--
		grader := caps[chosen].Email
		result.Assigned[grader] = append(result.Assigned[grader], sub)
	}

	return result, nil
}

// pickWeighted draws one of viable with probability remaining[i]/weight.
func pickWeighted(viable, remaining []int, weight int, rng Rand) int {
	r := rng.IntN(weight)
	for _, i := range viable {
		if r < remaining[i] {
			return i
		}
		r -= remaining[i]
	}
	return viable[len(viable)-1]
}

// Allocate runs the whole pipeline: capacity planning, conflict indexing and
// sampling.
func Allocate(graders []GraderHours, conflicts []ConflictPair, submissions []Submission, rng Rand) (*Allocation, error) {
	caps, err := PlanCapacities(graders, len(submissions))
	if err != nil {
		return nil, err
	}
	return Sample(caps, BuildConflictIndex(conflicts), submissions, rng)
}
