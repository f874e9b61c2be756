package enums

// AssignmentStatus tracks a delivery assignment from dispatch to completion.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

var assignmentStatuses = map[AssignmentStatus]struct{}{
	AssignmentStatusPending:    {},
	AssignmentStatusInProgress: {},
	AssignmentStatusCompleted:  {},
	AssignmentStatusCancelled:  {},
}

// IsValid reports whether the value is a known assignment status.
func (s AssignmentStatus) IsValid() bool {
	_, ok := assignmentStatuses[s]
	return ok
}

// CountsAgainstCapacity reports whether an assignment in this status still
// occupies driver capacity.
func (s AssignmentStatus) CountsAgainstCapacity() bool {
	return s != AssignmentStatusCancelled && s != AssignmentStatusCompleted
}
