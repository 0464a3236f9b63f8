package domain

// Models lists every table managed by auto-migration.
func Models() []any {
	return []any{
		&User{},
		&UserEmail{},
		&MediaRequest{},
		&Feature{},
		&FeatureDismissal{},
	}
}
