package markdown

import (
	"fmt"
	"slices"
	"strings"

	"github.com/eringen/folio/views"
)

// bibliography renders the reference list that follows a top-level rule. It
// must be the last paragraph of the document and contain only <ref> entries
// separated by line breaks, one for every cited key.
func (s *Session) bibliography(out *strings.Builder) error {
	ev, ok := s.tokens.Next()
	if !ok || ev.Kind != EventStart || ev.Tag.Kind != TagParagraph {
		return bibliographyError("a rule must be followed by a paragraph of <ref> entries")
	}

	var refs []views.Reference
	for done := false; !done; {
		n, err := s.referenceTag()
		if err != nil {
			return err
		}
		content, err := s.collectHTML("<ref>", "</ref>")
		if err != nil {
			return err
		}
		refs = append(refs, views.Reference{Number: n, Content: content})

		ev, ok := s.tokens.Next()
		switch {
		case !ok:
			return bibliographyError("unexpected end of document")
		case ev.Kind == EventEnd:
			done = true
		case ev.Kind != EventSoftBreak:
			return bibliographyError("entries may only be separated by line breaks")
		}
	}
	if _, ok := s.tokens.Next(); ok {
		return bibliographyError("the bibliography must be the last element of the post")
	}

	keys := make([]string, s.nextCite)
	for key, n := range s.citations {
		keys[n] = key
	}
	slices.SortStableFunc(refs, func(a, b views.Reference) int {
		return a.Number - b.Number
	})
	for i := 1; i < len(refs); i++ {
		if refs[i].Number == refs[i-1].Number {
			return bibliographyError(fmt.Sprintf("duplicate entry for '%s'", keys[refs[i].Number]))
		}
	}
	for n := 1; n < s.nextCite; n++ {
		if n > len(refs) || refs[n-1].Number != n {
			return &MissingCitationError{Key: keys[n]}
		}
	}
	s.cited = true
	return s.emit(out, views.Bibliography(refs))
}

// referenceTag reads an opening <ref id="KEY"> tag and returns the number
// assigned to KEY.
func (s *Session) referenceTag() (int, error) {
	ev, ok := s.tokens.Next()
	if !ok || (ev.Kind != EventHTML && ev.Kind != EventInlineHTML) {
		return 0, bibliographyError("only <ref> entries are allowed after a rule")
	}
	tag := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(tag, "<ref ") || !strings.HasSuffix(tag, ">") {
		return 0, bibliographyError(fmt.Sprintf("expected a <ref> tag, found '%s'", tag))
	}
	attrs := strings.TrimSpace(tag[len("<ref") : len(tag)-1])
	name, rest, _ := strings.Cut(attrs, `"`)
	id, _, closed := strings.Cut(rest, `"`)
	if strings.TrimSpace(name) != "id=" || !closed {
		return 0, bibliographyError(fmt.Sprintf("reference tag '%s' has no id attribute", tag))
	}
	id = strings.TrimSpace(id)
	n, ok := s.citations[id]
	if !ok {
		return 0, &UnknownReferenceError{ID: id}
	}
	return n, nil
}
