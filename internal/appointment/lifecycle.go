package appointment

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("actor is not allowed to perform this operation")
)

type edge struct {
	from Status
	to   Status
}

// Roles allowed to trigger each legal edge. Ownership (the actor must be the
// doctor or patient on the record unless admin) is enforced separately in
// the service, which also holds the appointment row.
var transitions = map[edge][]Role{
	{StatusPending, StatusConfirmed}:   {RoleDoctor, RoleAdmin},
	{StatusPending, StatusCancelled}:   {RolePatient, RoleDoctor, RoleAdmin},
	{StatusConfirmed, StatusCancelled}: {RolePatient, RoleDoctor, RoleAdmin},
	{StatusConfirmed, StatusCompleted}: {RoleDoctor},
}

// CanTransition validates a status edge for a role. Same-state transitions
// are a no-op and always allowed; terminal states admit no outgoing edges.
func CanTransition(from, to Status, role Role) error {
	if from == to {
		return nil
	}
	if from.Terminal() {
		return ErrInvalidTransition
	}

	roles, ok := transitions[edge{from, to}]
	if !ok {
		return ErrInvalidTransition
	}

	for _, r := range roles {
		if r == role {
			return nil
		}
	}

	return ErrForbidden
}
