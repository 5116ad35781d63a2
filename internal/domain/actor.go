package domain

// ActorRole enumerates who can act on a request.
type ActorRole string

const (
	RoleCitizen    ActorRole = "CITIZEN"
	RoleStaff      ActorRole = "STAFF"
	RoleSupervisor ActorRole = "SUPERVISOR"
	RoleSystem     ActorRole = "SYSTEM"
)

// Capability names an action a role may perform on the lifecycle.
type Capability string

const (
	CapSubmitRequest     Capability = "submit_request"
	CapIntakeRequest     Capability = "intake_request"
	CapAssignStaff       Capability = "assign_staff"
	CapWorkRequest       Capability = "work_request"
	CapEscalateRequest   Capability = "escalate_request"
	CapCloseRequest      Capability = "close_request"
	CapReopenRequest     Capability = "reopen_request"
	CapRejectOverride    Capability = "reject_override"
	CapResolveEscalation Capability = "resolve_escalation"
)

var roleCapabilities = map[ActorRole]map[Capability]struct{}{
	RoleCitizen: {
		CapSubmitRequest: {},
		CapReopenRequest: {},
	},
	RoleStaff: {
		CapIntakeRequest: {},
		CapWorkRequest:   {},
	},
	RoleSupervisor: {
		CapIntakeRequest:     {},
		CapAssignStaff:       {},
		CapEscalateRequest:   {},
		CapCloseRequest:      {},
		CapReopenRequest:     {},
		CapRejectOverride:    {},
		CapResolveEscalation: {},
	},
	RoleSystem: {
		CapIntakeRequest:   {},
		CapAssignStaff:     {},
		CapEscalateRequest: {},
		CapCloseRequest:    {},
	},
}

// SystemActorID marks actions taken by the engine itself (intake, sweep, auto close).
const SystemActorID = "system"

// Actor identifies who is performing an operation.
type Actor struct {
	ID   string
	Role ActorRole
}

// SystemActor returns the engine's own actor identity.
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Role: RoleSystem}
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(capability Capability) bool {
	caps, ok := roleCapabilities[a.Role]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}
