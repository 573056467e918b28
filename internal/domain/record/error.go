package record

import (
	"errors"
	"fmt"
)

var (
	ErrInitialization = errors.New("storage initialization failed")
	ErrNotFound       = errors.New("record not found")
	ErrMediaNotFound  = errors.New("media not found")
	ErrInvalidData    = errors.New("invalid record data")
	ErrQuotaExceeded  = errors.New("storage quota exceeded")
	ErrMigration      = errors.New("legacy migration failed")
)

// QuotaMessage - текст, который показывается пользователю при переполнении хранилища
const QuotaMessage = "storage full, export and prune old entries"

// QuotaError - запись отклонена из-за ограничения размера хранилища
type QuotaError struct {
	Op    string
	Cause error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, QuotaMessage)
}

func (e *QuotaError) Unwrap() error {
	return e.Cause
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
