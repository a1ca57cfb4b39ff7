package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound wraps gorm.ErrRecordNotFound so callers can match either
	ErrNotFound = fmt.Errorf("record not found: %w", gorm.ErrRecordNotFound)
	// ErrDuplicate wraps gorm.ErrDuplicatedKey (raised with TranslateError)
	ErrDuplicate    = fmt.Errorf("duplicate record: %w", gorm.ErrDuplicatedKey)
	ErrInvalidInput = errors.New("invalid input")
)

// translate maps driver-level errors onto the repository sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// escapeLike escapes LIKE wildcards so user input matches literally.
// Pair with ESCAPE '\' in the query.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// containsPattern builds a %needle% pattern for substring search. Case is
// left alone: callers fold both sides with the database's LOWER so the
// folding rules match (ASCII-only on SQLite).
func containsPattern(q string) string {
	return "%" + escapeLike(q) + "%"
}

// Page bounds a listing query
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}
