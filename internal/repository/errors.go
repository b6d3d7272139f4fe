// Package repository holds the MySQL data access for rooms, examinees,
// exam sessions, seating plans and accounts.  Sentinel errors declared here
// are shared across repositories so handlers can map them to HTTP status
// codes without knowing which table produced them.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a delete or update cannot proceed because
// dependent records exist, e.g. deleting a room that is still referenced by
// seat assignments.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

const errDupEntry = 1062

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDupEntry
	}
	return strings.Contains(err.Error(), "1062")
}
