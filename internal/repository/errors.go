// Package repository contains the data access layer.  This file defines
// the sentinel errors shared by all repositories and the translation of
// driver errors into them.  Handlers distinguish failure kinds through
// these sentinels: a rejected write is either a validation problem
// (bad enum or missing required column), a missing parent row, a unique
// constraint collision, or an ownership violation.  None of them is
// retryable; callers are expected to surface the kind to the end user.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or references a
// parent row that does not exist.  Handlers translate this into 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a write violates a CHECK or NOT NULL
// constraint, such as an enum value outside the accepted set.  Handlers
// translate this into 422.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when a unique constraint is violated.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource outside their ownership chain.  The service principal never
// receives this error.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when a user insert or update collides with
// an existing email.  It is a specialization of ErrConflict.
var ErrEmailExists = errors.New("email already exists")

// MySQL server error numbers that map onto the taxonomy above.
const (
	mysqlErrDupEntry        = 1062 // unique constraint violated
	mysqlErrNullColumn      = 1048 // NOT NULL column set to null
	mysqlErrDataTooLong     = 1406 // value exceeds column size
	mysqlErrNoReferencedRow = 1452 // foreign key parent missing
	mysqlErrCheckViolated   = 3819 // CHECK constraint failed
)

// classify maps a database error onto one of the sentinel errors.  Errors
// that do not correspond to a known constraint failure are returned
// unchanged so they surface as internal failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDupEntry:
			return ErrConflict
		case mysqlErrNoReferencedRow:
			return ErrNotFound
		case mysqlErrCheckViolated, mysqlErrNullColumn, mysqlErrDataTooLong:
			return ErrValidation
		}
	}
	return err
}
