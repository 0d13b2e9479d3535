package models

// All lists every model that takes part in auto-migration.
func All() []any {
	return []any{
		&Department{},
		&User{},
		&UserProfile{},
		&Task{},
		&TaskChat{},
		&ActivityLog{},
	}
}
