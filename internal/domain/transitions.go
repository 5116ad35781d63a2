package domain

import "strings"

// TransitionInput carries the optional text fields a transition may require.
type TransitionInput struct {
	Reason string
	Notes  string
}

type transitionRule struct {
	next       RequestStatus
	capability Capability
	// assigneeOnly restricts staff actors to the currently assigned staff member.
	assigneeOnly bool
	// requiresReason / requiresNotes make the corresponding input mandatory.
	requiresReason bool
	requiresNotes  bool
}

// transitionTable is the single authoritative status machine. No call site
// re-implements any part of it.
var transitionTable = map[RequestStatus][]transitionRule{
	StatusDraft: {
		{next: StatusSubmitted, capability: CapSubmitRequest},
	},
	StatusSubmitted: {
		{next: StatusReceived, capability: CapIntakeRequest},
	},
	StatusReceived: {
		{next: StatusAssigned, capability: CapAssignStaff},
	},
	StatusAssigned: {
		{next: StatusAccepted, capability: CapWorkRequest, assigneeOnly: true},
		{next: StatusRejected, capability: CapWorkRequest, assigneeOnly: true, requiresReason: true},
		{next: StatusEscalated, capability: CapEscalateRequest},
	},
	StatusAccepted: {
		{next: StatusInProgress, capability: CapWorkRequest, assigneeOnly: true},
		{next: StatusEscalated, capability: CapEscalateRequest},
	},
	StatusInProgress: {
		{next: StatusResolved, capability: CapWorkRequest, assigneeOnly: true, requiresNotes: true},
		{next: StatusEscalated, capability: CapEscalateRequest},
	},
	StatusEscalated: {
		{next: StatusAssigned, capability: CapAssignStaff},
		{next: StatusInProgress, capability: CapAssignStaff},
	},
	StatusResolved: {
		{next: StatusClosed, capability: CapCloseRequest},
	},
	StatusClosed: {
		{next: StatusReopened, capability: CapReopenRequest},
	},
	StatusReopened: {
		{next: StatusAssigned, capability: CapAssignStaff},
	},
	StatusRejected: {},
}

// TransitionError describes a rejected transition attempt.
type TransitionError struct {
	From   RequestStatus
	To     RequestStatus
	Detail string
}

func (e *TransitionError) Error() string {
	if e.Detail != "" {
		return "invalid transition " + string(e.From) + " -> " + string(e.To) + ": " + e.Detail
	}
	return "invalid transition " + string(e.From) + " -> " + string(e.To)
}

// ValidationError reports a missing required transition field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// ValidateTransition checks a status move against the transition table, the
// actor's capabilities, and the required input fields. It is a pure function
// of (current request, target status, actor, input).
func ValidateTransition(req *Request, next RequestStatus, actor Actor, input TransitionInput) error {
	// Supervisor override: any non-terminal state may be rejected with a reason.
	if next == StatusRejected && !req.Status.IsTerminal() && actor.Can(CapRejectOverride) {
		if strings.TrimSpace(input.Reason) == "" {
			return &ValidationError{Field: "rejection reason"}
		}
		return nil
	}

	rule, ok := findRule(req.Status, next)
	if !ok {
		return &TransitionError{From: req.Status, To: next}
	}

	if !actor.Can(rule.capability) {
		return &TransitionError{From: req.Status, To: next, Detail: "role " + string(actor.Role) + " lacks " + string(rule.capability)}
	}
	if rule.assigneeOnly && actor.Role == RoleStaff {
		if req.AssignedStaffID == nil || *req.AssignedStaffID != actor.ID {
			return &TransitionError{From: req.Status, To: next, Detail: "only the assigned staff member may do this"}
		}
	}
	if actor.Role == RoleCitizen && req.CitizenID != actor.ID {
		return &TransitionError{From: req.Status, To: next, Detail: "not the owning citizen"}
	}
	if rule.requiresReason && strings.TrimSpace(input.Reason) == "" {
		return &ValidationError{Field: "rejection reason"}
	}
	if rule.requiresNotes && strings.TrimSpace(input.Notes) == "" {
		return &ValidationError{Field: "resolution notes"}
	}
	return nil
}

// CanTransition reports whether the table contains the edge at all,
// ignoring actor and input requirements.
func CanTransition(from, to RequestStatus) bool {
	_, ok := findRule(from, to)
	return ok
}

func findRule(from, to RequestStatus) (transitionRule, bool) {
	for _, rule := range transitionTable[from] {
		if rule.next == to {
			return rule, true
		}
	}
	return transitionRule{}, false
}
