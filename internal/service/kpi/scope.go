package kpi

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
)

// ResolveScope decides which population the caller may see. Only admins may
// choose; managers are pinned to their own department and users to themselves,
// whatever the query asks for.
func ResolveScope(caller user.Caller, q kpi.Query) (kpi.ScopeDecision, error) {
	switch caller.Role {
	case user.RoleAdmin:
		return resolveAdminScope(caller, q)

	case user.RoleManager:
		if caller.Department == "" {
			return kpi.ScopeDecision{}, kpi.ErrDepartmentRequired
		}
		return kpi.ScopeDecision{Scope: kpi.ScopeDepartment, Department: caller.Department}, nil

	case user.RoleUser:
		if caller.UserID == "" {
			return kpi.ScopeDecision{}, user.ErrUnauthorized
		}
		return kpi.ScopeDecision{Scope: kpi.ScopeUser, UserID: caller.UserID}, nil

	default:
		return kpi.ScopeDecision{}, user.ErrUnknownRole
	}
}

func resolveAdminScope(caller user.Caller, q kpi.Query) (kpi.ScopeDecision, error) {
	scope := kpi.Scope(q.Scope)
	if scope == "" {
		switch {
		case q.UserID != "":
			scope = kpi.ScopeUser
		case q.Department != "":
			scope = kpi.ScopeDepartment
		default:
			scope = kpi.ScopeOrg
		}
	}

	switch scope {
	case kpi.ScopeOrg:
		return kpi.ScopeDecision{Scope: kpi.ScopeOrg}, nil
	case kpi.ScopeDepartment:
		department := q.Department
		if department == "" {
			department = caller.Department
		}
		if department == "" {
			return kpi.ScopeDecision{}, kpi.ErrDepartmentRequired
		}
		return kpi.ScopeDecision{Scope: kpi.ScopeDepartment, Department: department}, nil
	case kpi.ScopeUser:
		userID := q.UserID
		if userID == "" {
			userID = caller.UserID
		}
		return kpi.ScopeDecision{Scope: kpi.ScopeUser, UserID: userID}, nil
	default:
		return kpi.ScopeDecision{}, kpi.ErrInvalidScope
	}
}
