package repository

import (
	"errors"
	"fmt"

	"github.com/sjperalta/techlog-api/internal/identifier"
	"gorm.io/gorm"
)

// translate maps a unique-index violation onto identifier.ErrConflict so allocators retry.
// Relies on gorm.Config.TranslateError being enabled.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", identifier.ErrConflict, err)
	}
	return err
}
