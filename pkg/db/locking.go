package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a row-level exclusive lock to the query. SQLite has no
// FOR UPDATE syntax and serializes writers on the database lock instead, so
// the clause is skipped there to keep the in-memory test setup working.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
