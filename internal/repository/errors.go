// Package repository is the MySQL implementation of the booking and
// catalog stores.  Driver errors are translated into the model error
// kinds here, so handlers never see a *mysql.MySQLError.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// MySQL server error numbers the stores react to.
const (
	erDupEntry        = 1062
	erRowIsReferenced = 1451
	erNoReferencedRow = 1452
	erLockDeadlock    = 1213
	erLockWaitTimeout = 1205
	keyBookingSeat    = "uq_booking_seat"
	keyTicketCode     = "uq_ticket_code"
	keyPrimary        = "PRIMARY"
)

func mysqlError(err error) (*mysql.MySQLError, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// duplicateKey reports the name of the unique key a 1062 error violated.
// Servers from 8.0.19 on qualify the key with the table name.
func duplicateKey(err error) (string, bool) {
	me, ok := mysqlError(err)
	if !ok || me.Number != erDupEntry {
		return "", false
	}
	msg := me.Message
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return "", true
	}
	key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key, true
}

// translate maps a driver error onto the model error kinds.  entity names
// the record the statement was about.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFound(entity)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.Unavailable(err)
	}
	if me, ok := mysqlError(err); ok {
		switch me.Number {
		case erDupEntry:
			key, _ := duplicateKey(err)
			if key == keyTicketCode {
				return model.ErrTicketCodeTaken
			}
			return fmt.Errorf("%w: %s already exists", model.ErrConflict, entity)
		case erRowIsReferenced:
			return fmt.Errorf("%w: %s is still referenced", model.ErrConflict, entity)
		case erNoReferencedRow:
			return fmt.Errorf("%s references a missing record: %w", entity, model.ErrNotFound)
		case erLockDeadlock, erLockWaitTimeout:
			return model.Unavailable(err)
		}
	}
	return model.Unavailable(err)
}

// classified passes model errors through and marks anything else, such as
// a failed commit, as an infrastructure failure.
func classified(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{model.ErrNotFound, model.ErrConflict, model.ErrValidation,
		model.ErrUnavailable, model.ErrTicketCodeTaken} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return model.Unavailable(err)
}
