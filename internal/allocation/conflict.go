package allocation

// ConflictPair declares that Grader must never receive Student's submission.
type ConflictPair struct {
	Grader  string
	Student string
}

// ConflictIndex maps a student email to the set of graders forbidden for them.
type ConflictIndex map[string]map[string]struct{}

// BuildConflictIndex indexes conflict pairs by student. Repeated pairs collapse.
func BuildConflictIndex(pairs []ConflictPair) ConflictIndex {
	idx := make(ConflictIndex)
	for _, p := range pairs {
		set, ok := idx[p.Student]
		if !ok {
			set = make(map[string]struct{})
			idx[p.Student] = set
		}
		set[p.Grader] = struct{}{}
	}
	return idx
}

// Conflicted reports whether grader is forbidden for student.
func (idx ConflictIndex) Conflicted(student, grader string) bool {
	_, ok := idx[student][grader]
	return ok
}

// Count returns how many graders are forbidden for student.
func (idx ConflictIndex) Count(student string) int {
	return len(idx[student])
}
