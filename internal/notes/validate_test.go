package notes

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kuitang/notes-api/internal/errs"
	"pgregory.net/rapid"
)

// =============================================================================
// Generators
// =============================================================================

func validTitleGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 ]{0,198}[A-Za-z0-9]|[A-Za-z0-9]`)
}

func validContentGenerator() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.Just(""),
		rapid.StringMatching(`[A-Za-z0-9 .,!?]{1,400}`),
	)
}

// =============================================================================
// Property: valid input passes and comes back trimmed
// =============================================================================

func testValidateInput_ValidRoundtrip(t *rapid.T) {
	title := validTitleGenerator().Draw(t, "title")
	content := validContentGenerator().Draw(t, "content")
	pad := rapid.StringMatching(`[ \t]{0,4}`).Draw(t, "pad")

	norm, err := ValidateInput(NoteInput{Title: pad + title + pad, Content: content})
	if err != nil {
		t.Fatalf("ValidateInput failed for valid input: %v", err)
	}
	if norm.Title != strings.TrimSpace(pad+title+pad) {
		t.Fatalf("title not trimmed: got=%q", norm.Title)
	}
	if norm.Content != content {
		t.Fatalf("content altered: got=%q want=%q", norm.Content, content)
	}
}

func TestValidateInput_ValidRoundtrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidateInput_ValidRoundtrip)
}

func FuzzValidateInput_ValidRoundtrip(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testValidateInput_ValidRoundtrip))
}

// =============================================================================
// Property: empty and whitespace-only titles fail on the title field
// =============================================================================

func testValidateInput_RequiresTitle(t *rapid.T) {
	blank := rapid.StringMatching(`[ \t]{0,10}`).Draw(t, "blank")
	content := validContentGenerator().Draw(t, "content")

	_, err := ValidateInput(NoteInput{Title: blank, Content: content})
	if err == nil {
		t.Fatal("expected error for blank title")
	}
	if errs.CodeOf(err) != errs.InvalidArgument {
		t.Fatalf("expected invalid_argument, got %q", errs.CodeOf(err))
	}
	assertFieldViolation(t, err, "title")
}

func TestValidateInput_RequiresTitle(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidateInput_RequiresTitle)
}

// =============================================================================
// Property: oversized title and content fail on their own fields
// =============================================================================

func testValidateInput_RejectsOversized(t *rapid.T) {
	titleLen := rapid.IntRange(MaxTitleLen+1, MaxTitleLen+50).Draw(t, "titleLen")
	contentLen := rapid.IntRange(MaxContentLen+1, MaxContentLen+50).Draw(t, "contentLen")

	longTitle := strings.Repeat("a", titleLen)
	longContent := strings.Repeat("b", contentLen)

	_, err := ValidateInput(NoteInput{Title: longTitle, Content: "ok"})
	if err == nil {
		t.Fatal("expected error for oversized title")
	}
	assertFieldViolation(t, err, "title")

	_, err = ValidateInput(NoteInput{Title: "ok", Content: longContent})
	if err == nil {
		t.Fatal("expected error for oversized content")
	}
	assertFieldViolation(t, err, "content")

	// Both invalid at once: both fields reported.
	_, err = ValidateInput(NoteInput{Title: longTitle, Content: longContent})
	if err == nil {
		t.Fatal("expected error for oversized title and content")
	}
	assertFieldViolation(t, err, "title")
	assertFieldViolation(t, err, "content")
}

func TestValidateInput_RejectsOversized(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidateInput_RejectsOversized)
}

// Boundary lengths are exact: 200-char titles and 5000-char content pass.
func TestValidateInput_BoundaryLengths(t *testing.T) {
	t.Parallel()

	norm, err := ValidateInput(NoteInput{
		Title:   strings.Repeat("t", MaxTitleLen),
		Content: strings.Repeat("c", MaxContentLen),
	})
	if err != nil {
		t.Fatalf("boundary input rejected: %v", err)
	}
	if utf8.RuneCountInString(norm.Title) != MaxTitleLen {
		t.Fatalf("title length changed: %d", utf8.RuneCountInString(norm.Title))
	}

	// Length is counted in characters, not bytes.
	multibyte := strings.Repeat("я", MaxTitleLen)
	if _, err := ValidateInput(NoteInput{Title: multibyte}); err != nil {
		t.Fatalf("200-rune multibyte title rejected: %v", err)
	}
}

// =============================================================================
// Property: ClampPage normalizes any pair into [1,MaxLimit] x [0,inf)
// =============================================================================

func testClampPage_Normalizes(t *rapid.T) {
	limit := rapid.IntRange(-1000, 1000).Draw(t, "limit")
	offset := rapid.IntRange(-1000, 1000).Draw(t, "offset")

	gotLimit, gotOffset := ClampPage(limit, offset)

	if gotLimit < 1 || gotLimit > MaxLimit {
		t.Fatalf("limit out of range: %d", gotLimit)
	}
	if limit <= 0 && gotLimit != DefaultLimit {
		t.Fatalf("invalid limit should default to %d, got %d", DefaultLimit, gotLimit)
	}
	if limit > MaxLimit && gotLimit != MaxLimit {
		t.Fatalf("oversized limit should clamp to %d, got %d", MaxLimit, gotLimit)
	}
	if limit >= 1 && limit <= MaxLimit && gotLimit != limit {
		t.Fatalf("in-range limit altered: got=%d want=%d", gotLimit, limit)
	}
	if gotOffset < 0 {
		t.Fatalf("offset negative: %d", gotOffset)
	}
	if offset >= 0 && gotOffset != offset {
		t.Fatalf("valid offset altered: got=%d want=%d", gotOffset, offset)
	}
}

func TestClampPage_Normalizes(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testClampPage_Normalizes)
}

func FuzzClampPage_Normalizes(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testClampPage_Normalizes))
}

// =============================================================================
// Helpers
// =============================================================================

func assertFieldViolation(t interface {
	Fatalf(format string, args ...interface{})
}, err error, field string) {
	var coded *errs.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %v", err)
	}
	for _, v := range coded.Fields {
		if v.Field == field {
			if v.Message == "" {
				t.Fatalf("violation for %q has empty message", field)
			}
			return
		}
	}
	t.Fatalf("no violation for field %q in %v", field, coded.Fields)
}
