// Package policy decides what a user is allowed to do. Authorization is a
// pure function over the user's role and the requested action, so handlers
// never encode role checks themselves.
package policy

import "github.com/taskhive/taskhive/internal/domain"

// Action names a capability a handler may ask about.
type Action string

// Actions checked by the API layer.
const (
	ActionManageUsers       Action = "manage_users"
	ActionCreateTask        Action = "create_task"
	ActionEditAnyTask       Action = "edit_any_task"
	ActionDeleteTask        Action = "delete_task"
	ActionManageTemplates   Action = "manage_templates"
	ActionSelectRecurring   Action = "select_recurring"
	ActionTriggerGeneration Action = "trigger_generation"
	ActionImportTasks       Action = "import_tasks"
	ActionViewAnalytics     Action = "view_analytics"
	ActionManageCategories  Action = "manage_categories"
)

// rolePermissions maps each role to its allowed actions. Admin is handled
// separately and allows everything.
var rolePermissions = map[domain.Role]map[Action]struct{}{
	domain.RoleTeamLead: actionSet(
		ActionManageUsers,
		ActionCreateTask,
		ActionEditAnyTask,
		ActionDeleteTask,
		ActionManageTemplates,
		ActionSelectRecurring,
		ActionTriggerGeneration,
		ActionImportTasks,
		ActionViewAnalytics,
		ActionManageCategories,
	),
	domain.RoleMentor: actionSet(
		ActionCreateTask,
		ActionSelectRecurring,
		ActionViewAnalytics,
	),
	domain.RoleMember: actionSet(
		ActionCreateTask,
		ActionSelectRecurring,
	),
	domain.RoleGuest: {},
}

// Can reports whether the user may perform the action. Inactive users may do
// nothing; admins may do everything.
func Can(user *domain.User, action Action) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}

	perms, ok := rolePermissions[user.Role]
	if !ok {
		return false
	}
	_, allowed := perms[action]
	return allowed
}

func actionSet(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}
