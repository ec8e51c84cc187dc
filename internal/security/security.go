// Package security contains the caller identity model and the domain
// permission evaluator: a pure decision function with no I/O that maps
// (resource, permission, caller) to allow/deny.
package security

// Permission is the action a caller requests on a resource. Current policy
// treats all three identically, but the permission is threaded through every
// evaluation so the rules can diverge per action later.
type Permission string

const (
	PermissionRead   Permission = "READ"
	PermissionUpdate Permission = "UPDATE"
	PermissionDelete Permission = "DELETE"
)

// Decision is the outcome of a permission evaluation.
//
// DecisionNotApplicable means the target is not an access-controlled
// resource type; the caller must fall back to its own policy for such
// targets instead of treating this as a deny.
type Decision int

const (
	DecisionDeny Decision = iota
	DecisionAllow
	DecisionNotApplicable
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	case DecisionNotApplicable:
		return "not_applicable"
	}
	return "unknown"
}

// CreatorAware is the capability interface implemented by resource types
// that participate in creator/role based access control.
type CreatorAware interface {
	GetCreatorID() string
	GetAuthorizedRoles() []string
}

// Caller is the authenticated subject of the current request. Roles are
// externally authenticated; the core does not validate them.
type Caller struct {
	ID    string
	Roles []string
}

// Authenticated reports whether the request carried a subject identity.
func (c Caller) Authenticated() bool { return c.ID != "" }

// Evaluator decides whether a caller may act on an access-controlled
// resource. It is constructed once at startup with the configured
// case-worker role allowlist and holds no mutable state, so it is safe for
// concurrent use.
type Evaluator struct {
	caseWorkerRoles map[string]struct{}
}

// NewEvaluator builds an Evaluator with the given case-worker role
// allowlist. The allowlist is copied; later mutation of the slice does not
// affect the evaluator.
func NewEvaluator(caseWorkerRoles []string) *Evaluator {
	set := make(map[string]struct{}, len(caseWorkerRoles))
	for _, r := range caseWorkerRoles {
		set[r] = struct{}{}
	}
	return &Evaluator{caseWorkerRoles: set}
}

// Evaluate applies the access rules in order, first match wins:
//
//  1. the caller created the resource
//  2. the caller holds one of the resource's authorized roles
//  3. the caller holds a configured case-worker role
//
// Otherwise the decision is deny. Targets that do not implement
// CreatorAware yield DecisionNotApplicable.
func (e *Evaluator) Evaluate(target any, perm Permission, caller Caller) Decision {
	res, ok := target.(CreatorAware)
	if !ok {
		return DecisionNotApplicable
	}
	return e.evaluate(res, perm, caller)
}

// perm is accepted for future per-action differentiation; the rules below
// are currently uniform across READ/UPDATE/DELETE.
func (e *Evaluator) evaluate(res CreatorAware, perm Permission, caller Caller) Decision {
	_ = perm

	if caller.ID != "" && caller.ID == res.GetCreatorID() {
		return DecisionAllow
	}

	authorized := res.GetAuthorizedRoles()
	for _, role := range caller.Roles {
		for _, allowed := range authorized {
			if role == allowed {
				return DecisionAllow
			}
		}
		if _, ok := e.caseWorkerRoles[role]; ok {
			return DecisionAllow
		}
	}
	return DecisionDeny
}

// IsCaseWorker reports whether the caller holds at least one configured
// case-worker role.
func (e *Evaluator) IsCaseWorker(caller Caller) bool {
	for _, role := range caller.Roles {
		if _, ok := e.caseWorkerRoles[role]; ok {
			return true
		}
	}
	return false
}
