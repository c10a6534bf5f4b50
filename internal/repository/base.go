// Package repository implements the data access layer for the storefront.
package repository

import (
	"errors"
	"strings"

	"storefront/internal/database"
	"storefront/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// uniqueField binds a constrained column to the input field and message
// reported when a write violates the constraint on it.
type uniqueField struct {
	column  string
	field   string
	message string
}

// uniqueViolation reports whether err is a unique constraint violation and
// returns the constraint text (index name on PostgreSQL, "table.column" on
// sqlite).
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return pgErr.ConstraintName + " " + pgErr.Detail, true
		}
		return "", false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return err.Error(), true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505") {
		return msg, true
	}
	return "", false
}

// foreignKeyViolation is uniqueViolation for references to missing rows.
func foreignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName + " " + pgErr.Detail, pgErr.Code == "23503"
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return err.Error(), true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key constraint failed") {
		return msg, true
	}
	return "", false
}

func matchField(constraint string, fields []uniqueField) (uniqueField, bool) {
	constraint = strings.ToLower(constraint)
	for _, f := range fields {
		if strings.Contains(constraint, "_"+f.column) ||
			strings.Contains(constraint, "."+f.column) ||
			strings.Contains(constraint, "("+f.column+")") {
			return f, true
		}
	}
	return uniqueField{}, false
}

// mapWriteError turns a failed write into an AppError. Unique violations on
// one of fields become a field-level validation failure; AppErrors returned
// by model hooks pass through.
func mapWriteError(err error, fields ...uniqueField) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if constraint, ok := uniqueViolation(err); ok {
		if f, found := matchField(constraint, fields); found {
			return models.NewFieldError(f.field, f.message)
		}
		return models.NewValidationError("A record with these values already exists.")
	}
	if constraint, ok := foreignKeyViolation(err); ok {
		if f, found := matchField(constraint, fields); found {
			return models.NewFieldError(f.field, f.message)
		}
		return models.NewValidationError(invalidChoice)
	}
	return models.NewInternalError(err)
}

const invalidChoice = "Select a valid choice. That choice is not one of the available choices."

func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
