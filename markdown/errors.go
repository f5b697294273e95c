package markdown

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeading is returned for any heading other than "##".
	ErrInvalidHeading = errors.New("invalid heading: only level 2 headings are allowed")
	// ErrBibliography is returned for a malformed or misplaced bibliography.
	ErrBibliography = errors.New("invalid bibliography")
	// ErrNonUTF8 is returned when the document body is not valid UTF-8.
	ErrNonUTF8 = errors.New("post content is not utf-8")
	// ErrUnsupported is returned for markup the dialect does not accept.
	ErrUnsupported = errors.New("unsupported element")
)

// DirectiveError names a raw HTML tag that is not one of the whitelisted
// directives.
type DirectiveError struct {
	Tag string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("invalid html tag: '%s'", e.Tag)
}

// UnknownReferenceError is returned for a bibliography entry whose id is
// never cited.
type UnknownReferenceError struct {
	ID string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("the bibliography has an entry with id '%s' but this id is never referenced", e.ID)
}

// MissingCitationError is returned when a cited key has no bibliography
// entry.
type MissingCitationError struct {
	Key string
}

func (e *MissingCitationError) Error() string {
	return fmt.Sprintf("bibliography entry for '%s' is missing", e.Key)
}

func bibliographyError(msg string) error {
	return fmt.Errorf("%w: %s", ErrBibliography, msg)
}
