package repository

import (
	"fmt"

	"github.com/and161185/account-manager/internal/ident"
)

// ScopeTable maps a scope kind to its table and parent column.
func ScopeTable(kind ident.Kind) (table, parentCol string, err error) {
	switch kind {
	case ident.UserProjects:
		return "projects", "user_id", nil
	case ident.ProjectCredentials:
		return "credentials", "project_id", nil
	case ident.ProjectTasks:
		return "tasks", "project_id", nil
	default:
		return "", "", fmt.Errorf("unknown scope kind %s", kind)
	}
}
