package models

import "github.com/google/uuid"

// ensureID assigns a fresh id when the caller left it unset so inserts behave
// the same on Postgres and on the sqlite test schema.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
