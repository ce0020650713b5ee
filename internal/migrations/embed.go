// Package migrations provides embedded SQL migration files.
package migrations

import (
	_ "embed"
)

//go:embed sql/001_initial.sql
var InitialSQL string

//go:embed sql/002_jellyfin_cache.sql
var Migration002JellyfinCache string

// All returns every migration in apply order.
func All() []string {
	return []string{InitialSQL, Migration002JellyfinCache}
}
