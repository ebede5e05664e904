package notes

import (
	"strings"
	"unicode/utf8"

	"github.com/kuitang/notes-api/internal/errs"
)

// ValidateInput normalizes and checks a note payload. Pure function, no I/O.
//
// The title is trimmed before length checks; content is taken verbatim.
// On failure the returned error carries one violation per offending field,
// which handlers surface verbatim in the 400 response body.
func ValidateInput(in NoteInput) (NoteInput, error) {
	title := strings.TrimSpace(in.Title)

	var fields []errs.FieldViolation
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		fields = append(fields, errs.FieldViolation{
			Field:   "title",
			Message: "title is required and must be 1-200 characters",
		})
	case n > MaxTitleLen:
		fields = append(fields, errs.FieldViolation{
			Field:   "title",
			Message: "title must be at most 200 characters",
		})
	}
	if utf8.RuneCountInString(in.Content) > MaxContentLen {
		fields = append(fields, errs.FieldViolation{
			Field:   "content",
			Message: "content must be at most 5000 characters",
		})
	}
	if len(fields) > 0 {
		return NoteInput{}, errs.Invalid("Invalid input", fields...)
	}

	return NoteInput{Title: title, Content: in.Content}, nil
}

// ClampPage normalizes pagination parameters: limit defaults to DefaultLimit
// when non-positive and is capped at MaxLimit; negative offsets become 0.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
