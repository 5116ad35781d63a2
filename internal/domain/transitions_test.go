package domain

import (
	"errors"
	"testing"
)

func staffPtr(id string) *string { return &id }

func TestValidateTransitionHappyPath(t *testing.T) {
	citizen := Actor{ID: "citizen-1", Role: RoleCitizen}
	staff := Actor{ID: "staff-1", Role: RoleStaff}
	supervisor := Actor{ID: "sup-1", Role: RoleSupervisor}

	tests := []struct {
		name  string
		from  RequestStatus
		to    RequestStatus
		actor Actor
		input TransitionInput
	}{
		{"submit", StatusDraft, StatusSubmitted, citizen, TransitionInput{}},
		{"intake", StatusSubmitted, StatusReceived, staff, TransitionInput{}},
		{"assign", StatusReceived, StatusAssigned, supervisor, TransitionInput{}},
		{"accept", StatusAssigned, StatusAccepted, staff, TransitionInput{}},
		{"start work", StatusAccepted, StatusInProgress, staff, TransitionInput{}},
		{"resolve", StatusInProgress, StatusResolved, staff, TransitionInput{Notes: "fixed"}},
		{"close", StatusResolved, StatusClosed, supervisor, TransitionInput{}},
		{"reopen", StatusClosed, StatusReopened, citizen, TransitionInput{Reason: "not fixed"}},
		{"reassign after reopen", StatusReopened, StatusAssigned, supervisor, TransitionInput{}},
		{"escalate assigned", StatusAssigned, StatusEscalated, supervisor, TransitionInput{}},
		{"de-escalate", StatusEscalated, StatusAssigned, supervisor, TransitionInput{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Status: tt.from, CitizenID: citizen.ID, AssignedStaffID: staffPtr(staff.ID)}
			if err := ValidateTransition(req, tt.to, tt.actor, tt.input); err != nil {
				t.Errorf("ValidateTransition(%s -> %s) = %v, want nil", tt.from, tt.to, err)
			}
		})
	}
}

func TestValidateTransitionRejectsUnknownEdges(t *testing.T) {
	supervisor := Actor{ID: "sup-1", Role: RoleSupervisor}
	tests := []struct {
		from RequestStatus
		to   RequestStatus
	}{
		{StatusSubmitted, StatusResolved},
		{StatusSubmitted, StatusAssigned},
		{StatusResolved, StatusInProgress},
		{StatusClosed, StatusAssigned},
		{StatusRejected, StatusSubmitted},
		{StatusDraft, StatusClosed},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.to), func(t *testing.T) {
			req := &Request{Status: tt.from, CitizenID: "citizen-1"}
			err := ValidateTransition(req, tt.to, supervisor, TransitionInput{})
			var transitionErr *TransitionError
			if !errors.As(err, &transitionErr) {
				t.Errorf("ValidateTransition(%s -> %s) = %v, want TransitionError", tt.from, tt.to, err)
			}
		})
	}
}

func TestValidateTransitionAssigneeOnly(t *testing.T) {
	req := &Request{Status: StatusAssigned, CitizenID: "citizen-1", AssignedStaffID: staffPtr("staff-1")}

	other := Actor{ID: "staff-2", Role: RoleStaff}
	err := ValidateTransition(req, StatusAccepted, other, TransitionInput{})
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("non-assignee accept = %v, want TransitionError", err)
	}

	assignee := Actor{ID: "staff-1", Role: RoleStaff}
	if err := ValidateTransition(req, StatusAccepted, assignee, TransitionInput{}); err != nil {
		t.Fatalf("assignee accept = %v, want nil", err)
	}
}

func TestValidateTransitionCapabilityChecks(t *testing.T) {
	citizen := Actor{ID: "citizen-1", Role: RoleCitizen}
	req := &Request{Status: StatusReceived, CitizenID: citizen.ID}

	err := ValidateTransition(req, StatusAssigned, citizen, TransitionInput{})
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("citizen assign = %v, want TransitionError", err)
	}
}

func TestValidateTransitionCitizenOwnership(t *testing.T) {
	owner := Actor{ID: "citizen-1", Role: RoleCitizen}
	stranger := Actor{ID: "citizen-2", Role: RoleCitizen}
	req := &Request{Status: StatusClosed, CitizenID: owner.ID}

	if err := ValidateTransition(req, StatusReopened, owner, TransitionInput{Reason: "still broken"}); err != nil {
		t.Fatalf("owner reopen = %v, want nil", err)
	}
	err := ValidateTransition(req, StatusReopened, stranger, TransitionInput{Reason: "still broken"})
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("stranger reopen = %v, want TransitionError", err)
	}
}

func TestValidateTransitionRequiredFields(t *testing.T) {
	staff := Actor{ID: "staff-1", Role: RoleStaff}
	var validationErr *ValidationError

	resolveReq := &Request{Status: StatusInProgress, CitizenID: "citizen-1", AssignedStaffID: staffPtr(staff.ID)}
	err := ValidateTransition(resolveReq, StatusResolved, staff, TransitionInput{})
	if !errors.As(err, &validationErr) {
		t.Fatalf("resolve without notes = %v, want ValidationError", err)
	}

	rejectReq := &Request{Status: StatusAssigned, CitizenID: "citizen-1", AssignedStaffID: staffPtr(staff.ID)}
	err = ValidateTransition(rejectReq, StatusRejected, staff, TransitionInput{})
	if !errors.As(err, &validationErr) {
		t.Fatalf("reject without reason = %v, want ValidationError", err)
	}
}

func TestSupervisorRejectOverride(t *testing.T) {
	supervisor := Actor{ID: "sup-1", Role: RoleSupervisor}

	// Supervisors may reject from any non-terminal state, even where the
	// table has no staff edge.
	for _, from := range []RequestStatus{StatusSubmitted, StatusReceived, StatusInProgress, StatusEscalated} {
		req := &Request{Status: from, CitizenID: "citizen-1"}
		if err := ValidateTransition(req, StatusRejected, supervisor, TransitionInput{Reason: "duplicate"}); err != nil {
			t.Errorf("override reject from %s = %v, want nil", from, err)
		}
	}

	var validationErr *ValidationError
	req := &Request{Status: StatusInProgress, CitizenID: "citizen-1"}
	err := ValidateTransition(req, StatusRejected, supervisor, TransitionInput{})
	if !errors.As(err, &validationErr) {
		t.Fatalf("override reject without reason = %v, want ValidationError", err)
	}

	closed := &Request{Status: StatusClosed, CitizenID: "citizen-1"}
	err = ValidateTransition(closed, StatusRejected, supervisor, TransitionInput{Reason: "duplicate"})
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("override reject from terminal = %v, want TransitionError", err)
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusClosed.IsTerminal() || !StatusRejected.IsTerminal() {
		t.Error("CLOSED and REJECTED must be terminal")
	}
	if StatusResolved.IsTerminal() {
		t.Error("RESOLVED is not terminal, it can still close or reopen")
	}
	for _, s := range []RequestStatus{StatusAssigned, StatusAccepted, StatusInProgress} {
		if !s.IsInFlight() {
			t.Errorf("%s must be in flight", s)
		}
	}
	for _, s := range []RequestStatus{StatusSubmitted, StatusEscalated, StatusResolved, StatusClosed} {
		if s.IsInFlight() {
			t.Errorf("%s must not be in flight", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusResolved, StatusClosed) {
		t.Error("RESOLVED -> CLOSED must be a table edge")
	}
	if CanTransition(StatusRejected, StatusReopened) {
		t.Error("REJECTED must have no outgoing edges")
	}
}
