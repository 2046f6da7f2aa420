package appointment

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusRescheduled, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusRescheduled, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusRescheduled, false},
		{StatusRescheduled, StatusRescheduled, true},
		{StatusRescheduled, StatusApproved, false},
		{StatusRescheduled, StatusRejected, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		from, to Status
		noop     bool
		wantErr  bool
	}{
		{"approve pending", StatusPending, StatusApproved, false, false},
		{"reject pending", StatusPending, StatusRejected, false, false},
		{"approve again", StatusApproved, StatusApproved, true, false},
		{"reject again", StatusRejected, StatusRejected, true, false},
		{"approved back to pending", StatusApproved, StatusPending, false, true},
		{"approved to rejected", StatusApproved, StatusRejected, false, true},
		{"rejected to approved", StatusRejected, StatusApproved, false, true},
		{"rescheduled via status", StatusPending, StatusRescheduled, false, true},
		{"approve rescheduled", StatusRescheduled, StatusApproved, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noop, err := decide(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decide error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if noop != tt.noop {
				t.Errorf("noop = %v, want %v", noop, tt.noop)
			}
		})
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{From: StatusApproved, To: StatusPending}
	if err.Error() != "cannot change status from approved to pending" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
