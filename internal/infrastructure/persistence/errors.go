package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// notFoundAs maps gorm.ErrRecordNotFound to the given domain sentinel
func notFoundAs(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// isUniqueViolation detects unique constraint failures from either driver.
// The pure-Go sqlite driver is not covered by GORM's error translation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
