package tasks

import (
	"task-tracker-api/internal/lifecycle"
	"task-tracker-api/internal/models"
)

func categoryOf(u models.User) models.UserCategory {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Category
}

func departmentOf(u *models.User) *uint {
	if u == nil || u.Profile == nil {
		return nil
	}
	return u.Profile.DepartmentID
}

func sameID(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

func isCreator(t models.Task, u models.User) bool {
	return t.AssignedByID != nil && *t.AssignedByID == u.ID
}

func isAssignee(t models.Task, u models.User) bool {
	return t.AssignedToID != nil && *t.AssignedToID == u.ID
}

func isManager(u models.User) bool {
	return categoryOf(u) == models.CategoryDepartmentManager
}

// managesDepartmentOf reports whether u is a Departmental Manager of the
// department other belongs to.
func managesDepartmentOf(u models.User, other *models.User) bool {
	return isManager(u) && sameID(departmentOf(&u), departmentOf(other))
}

// canView covers detail, chat and viewer-list access.
func canView(t models.Task, u models.User) bool {
	return isCreator(t, u) || isAssignee(t, u) || isManager(u) ||
		t.IsViewer(lifecycle.NormalizeEmail(u.Email))
}

func canEdit(t models.Task, u models.User) bool {
	return isCreator(t, u) || managesDepartmentOf(u, t.AssignedBy)
}

func canUpdateStatus(t models.Task, u models.User) bool {
	return isCreator(t, u) || isAssignee(t, u) || isManager(u)
}

func canReturn(t models.Task, u models.User) bool {
	return isAssignee(t, u) || managesDepartmentOf(u, t.AssignedTo)
}

func canManageViewers(t models.Task, u models.User) bool {
	return isCreator(t, u) || isAssignee(t, u) || isManager(u)
}
