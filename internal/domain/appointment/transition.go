package appointment

// transitions lists the allowed status moves. rescheduled→rescheduled is a
// move to yet another slot; approved and rejected have no way out.
var transitions = map[Status][]Status{
	StatusPending:     {StatusApproved, StatusRejected, StatusRescheduled},
	StatusRescheduled: {StatusRescheduled},
}

// CanTransition reports whether an appointment in from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// decide checks a doctor's approve/reject decision. noop is true when the
// appointment already carries that decision.
func decide(from, to Status) (noop bool, err error) {
	if to != StatusApproved && to != StatusRejected {
		return false, &TransitionError{From: from, To: to}
	}
	if from == to {
		return true, nil
	}
	if !CanTransition(from, to) {
		return false, &TransitionError{From: from, To: to}
	}
	return false, nil
}
