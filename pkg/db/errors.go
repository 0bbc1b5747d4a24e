package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraintName is set, the failure must reference that constraint (postgres)
// or one of its columns (sqlite reports "table.column").
func IsUniqueViolation(err error, constraintName string, columns ...string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		if len(columns) == 0 {
			return true
		}
		for _, column := range columns {
			if strings.Contains(msg, column) {
				return true
			}
		}
		return false
	case strings.Contains(msg, "duplicate key value"):
		return constraintName == "" || strings.Contains(msg, constraintName)
	}
	return false
}
