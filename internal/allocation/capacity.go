package allocation

import "sort"

// GraderHours is one grader's declared hours. Order of a []GraderHours is
// significant: it breaks ties when leftover slots are handed out.
type GraderHours struct {
	Email string
	Hours int
}

// Capacity is the number of submissions a grader receives in one batch.
type Capacity struct {
	Email string
	Slots int
}

// PlanCapacities splits n submissions across graders in proportion to their
// hours. Graders with hours <= 0 are left out entirely.
//
// Each grader gets floor(hours*n/total) slots. The remaining slots go one
// each to the graders with the smallest base share, ties resolved by input
// order. The returned slots always sum to n.
func PlanCapacities(graders []GraderHours, n int) ([]Capacity, error) {
	if n <= 0 {
		return []Capacity{}, nil
	}

	var totalHours int64
	participating := make([]GraderHours, 0, len(graders))
	for _, g := range graders {
		if g.Hours <= 0 {
			continue
		}
		participating = append(participating, g)
		totalHours += int64(g.Hours)
	}
	if totalHours == 0 {
		return nil, &ConfigurationError{Submissions: n}
	}

	caps := make([]Capacity, len(participating))
	assigned := 0
	for i, g := range participating {
		base := int(int64(g.Hours) * int64(n) / totalHours)
		caps[i] = Capacity{Email: g.Email, Slots: base}
		assigned += base
	}

	// leftover < len(caps) because every base share is a floor.
	leftover := n - assigned
	if leftover > 0 {
		order := make([]int, len(caps))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return caps[order[a]].Slots < caps[order[b]].Slots
		})
		for _, i := range order[:leftover] {
			caps[i].Slots++
		}
	}

	return caps, nil
}

// TotalSlots sums the slots of caps.
func TotalSlots(caps []Capacity) int {
	total := 0
	for _, c := range caps {
		total += c.Slots
	}
	return total
}
