// Package repository implements the session storage interfaces over
// MySQL.  Every atomicity guarantee the orchestration core relies on
// lives here: the (user, course) unique key behind booking idempotency,
// the transactional capacity check behind TryBook, and the conditional
// phase updates behind the live-session state machine.  Domain error
// values are defined in the session package; this package maps driver
// errors onto them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is the server error code for a unique key
// violation (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
