package allocation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed IntN draws and leaves Shuffle as identity.
type scriptedRand struct {
	draws []int
	calls []int
}

func (r *scriptedRand) IntN(n int) int {
	r.calls = append(r.calls, n)
	if len(r.draws) == 0 {
		return 0
	}
	v := r.draws[0]
	r.draws = r.draws[1:]
	return v
}

func (r *scriptedRand) Shuffle(int, func(i, j int)) {}

func subs(emails ...string) []Submission {
	out := make([]Submission, len(emails))
	for i, e := range emails {
		out[i] = Submission{StudentEmail: e, Version: 1, URL: "https://autolab.example/" + e}
	}
	return out
}

func slotsOf(caps []Capacity) map[string]int {
	m := make(map[string]int, len(caps))
	for _, c := range caps {
		m[c.Email] = c.Slots
	}
	return m
}

// ── Capacity planner ──

func TestPlanCapacities_ExactSplit(t *testing.T) {
	caps, err := PlanCapacities([]GraderHours{{"a@x.edu", 10}, {"b@x.edu", 5}}, 9)
	require.NoError(t, err)
	assert.Equal(t, []Capacity{{"a@x.edu", 6}, {"b@x.edu", 3}}, caps)
}

func TestPlanCapacities_LeftoverTieGoesToFirst(t *testing.T) {
	caps, err := PlanCapacities([]GraderHours{{"a@x.edu", 1}, {"b@x.edu", 1}}, 5)
	require.NoError(t, err)
	assert.Equal(t, []Capacity{{"a@x.edu", 3}, {"b@x.edu", 2}}, caps)
}

func TestPlanCapacities_LeftoverGoesToSmallestBase(t *testing.T) {
	// bases: a=3, b=1, c=1 (sum 5), leftover 2 goes to b then c.
	caps, err := PlanCapacities([]GraderHours{{"a@x.edu", 5}, {"b@x.edu", 2}, {"c@x.edu", 2}}, 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a@x.edu": 3, "b@x.edu": 2, "c@x.edu": 2}, slotsOf(caps))
}

func TestPlanCapacities_ZeroHourGradersExcluded(t *testing.T) {
	caps, err := PlanCapacities([]GraderHours{{"prof@x.edu", 0}, {"ta@x.edu", 4}}, 3)
	require.NoError(t, err)
	assert.Equal(t, []Capacity{{"ta@x.edu", 3}}, caps)
}

func TestPlanCapacities_NoSubmissions(t *testing.T) {
	caps, err := PlanCapacities(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, caps)

	caps, err = PlanCapacities([]GraderHours{{"a@x.edu", 0}}, 0)
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestPlanCapacities_NoEligibleGrader(t *testing.T) {
	_, err := PlanCapacities([]GraderHours{{"a@x.edu", 0}, {"b@x.edu", -2}}, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEligibleGrader)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 4, cfgErr.Submissions)
}

func TestPlanCapacities_SumAndBoundsProperty(t *testing.T) {
	rng := NewRand(42)
	for iter := 0; iter < 500; iter++ {
		graders := make([]GraderHours, 1+rng.IntN(8))
		for i := range graders {
			graders[i] = GraderHours{Email: fmt.Sprintf("g%d@x.edu", i), Hours: rng.IntN(12)}
		}
		graders[0].Hours++ // at least one eligible
		n := rng.IntN(300)

		caps, err := PlanCapacities(graders, n)
		require.NoError(t, err)
		if n == 0 {
			assert.Empty(t, caps)
			continue
		}
		assert.Equal(t, n, TotalSlots(caps))

		total := 0
		for _, g := range graders {
			if g.Hours > 0 {
				total += g.Hours
			}
		}
		hours := make(map[string]int)
		for _, g := range graders {
			hours[g.Email] = g.Hours
		}
		for _, c := range caps {
			exact := float64(hours[c.Email]) * float64(n) / float64(total)
			assert.InDelta(t, exact, float64(c.Slots), 1.0, "grader %s", c.Email)
		}
	}
}

// ── Conflict index ──

func TestBuildConflictIndex(t *testing.T) {
	idx := BuildConflictIndex([]ConflictPair{
		{Grader: "g1", Student: "s1"},
		{Grader: "g2", Student: "s1"},
		{Grader: "g1", Student: "s1"},
		{Grader: "g1", Student: "s2"},
	})
	assert.Equal(t, 2, idx.Count("s1"))
	assert.Equal(t, 1, idx.Count("s2"))
	assert.Equal(t, 0, idx.Count("s3"))
	assert.True(t, idx.Conflicted("s1", "g2"))
	assert.False(t, idx.Conflicted("s2", "g2"))
	assert.Empty(t, BuildConflictIndex(nil))
}

// ── Sampler ──

func TestSample_Unassignable(t *testing.T) {
	caps := []Capacity{{"g@x.edu", 1}}
	idx := BuildConflictIndex([]ConflictPair{{Grader: "g@x.edu", Student: "s@x.edu"}})

	result, err := Sample(caps, idx, subs("s@x.edu"), NewRand(1))
	require.Error(t, err)
	assert.Nil(t, result)

	var unassignable *UnassignableStudentError
	require.True(t, errors.As(err, &unassignable))
	assert.Equal(t, "s@x.edu", unassignable.Student)
	assert.ErrorIs(t, err, ErrUnassignableStudent)
}

func TestSample_WeightedByRemainingCapacity(t *testing.T) {
	caps := []Capacity{{"a", 3}, {"b", 1}}
	rng := &scriptedRand{draws: []int{3}}

	result, err := Sample(caps, ConflictIndex{}, subs("s1"), rng)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, rng.calls)
	assert.Len(t, result.Assigned["b"], 1)
	assert.Empty(t, result.Assigned["a"])
}

func TestSample_ConflictedGraderNotWeighted(t *testing.T) {
	caps := []Capacity{{"a", 3}, {"b", 2}}
	idx := BuildConflictIndex([]ConflictPair{{Grader: "a", Student: "s1"}})
	rng := &scriptedRand{draws: []int{0}}

	result, err := Sample(caps, idx, subs("s1"), rng)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, rng.calls)
	assert.Len(t, result.Assigned["b"], 1)
}

func TestSample_MostConstrainedFirst(t *testing.T) {
	// s1 can only go to b. If s2 were placed first it could take b's only
	// slot; ordering by conflict count must prevent that for every seed.
	caps := []Capacity{{"a", 1}, {"b", 1}}
	idx := BuildConflictIndex([]ConflictPair{{Grader: "a", Student: "s1"}})

	for seed := uint64(0); seed < 200; seed++ {
		result, err := Sample(caps, idx, subs("s2", "s1"), NewRand(seed))
		require.NoError(t, err, "seed %d", seed)
		require.Len(t, result.Assigned["b"], 1)
		assert.Equal(t, "s1", result.Assigned["b"][0].StudentEmail)
	}
}

func TestSample_DoesNotMutateCapacities(t *testing.T) {
	caps := []Capacity{{"a", 2}}
	_, err := Sample(caps, ConflictIndex{}, subs("s1", "s2"), NewRand(7))
	require.NoError(t, err)
	assert.Equal(t, 2, caps[0].Slots)
}

func TestSample_SameSeedSameResult(t *testing.T) {
	caps := []Capacity{{"a", 4}, {"b", 3}, {"c", 3}}
	students := subs("s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9")

	first, err := Sample(caps, ConflictIndex{}, students, NewRand(99))
	require.NoError(t, err)
	second, err := Sample(caps, ConflictIndex{}, students, NewRand(99))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAllocate_Properties(t *testing.T) {
	rng := NewRand(2024)
	for iter := 0; iter < 300; iter++ {
		nGraders := 1 + rng.IntN(6)
		graders := make([]GraderHours, nGraders)
		for i := range graders {
			graders[i] = GraderHours{Email: fmt.Sprintf("g%d", i), Hours: 1 + rng.IntN(10)}
		}
		students := make([]Submission, rng.IntN(120))
		for i := range students {
			students[i] = Submission{StudentEmail: fmt.Sprintf("s%d", i), Version: 1 + rng.IntN(3)}
		}
		// Sparse conflicts: never all graders for one student.
		var conflicts []ConflictPair
		if nGraders > 1 {
			for _, s := range students {
				if rng.IntN(5) == 0 {
					conflicts = append(conflicts, ConflictPair{
						Grader:  graders[rng.IntN(nGraders)].Email,
						Student: s.StudentEmail,
					})
				}
			}
		}

		result, err := Allocate(graders, conflicts, students, rng)
		if err != nil {
			// Tight capacities can still leave a conflicted student stranded.
			assert.ErrorIs(t, err, ErrUnassignableStudent)
			continue
		}

		assert.Equal(t, len(students), result.Total())

		caps, _ := PlanCapacities(graders, len(students))
		idx := BuildConflictIndex(conflicts)
		seen := make(map[string]bool)
		for _, p := range result.Pairs() {
			assert.False(t, idx.Conflicted(p.Submission.StudentEmail, p.Grader))
			assert.False(t, seen[p.Submission.StudentEmail], "student assigned twice")
			seen[p.Submission.StudentEmail] = true
		}
		for _, c := range caps {
			assert.Len(t, result.Assigned[c.Email], c.Slots)
		}
	}
}

func TestAllocate_EmptyRun(t *testing.T) {
	result, err := Allocate(nil, nil, nil, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.Empty(t, result.Pairs())
}
