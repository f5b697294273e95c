package markdown

import (
	"strings"

	"github.com/eringen/folio/views"
)

// directive handles one raw HTML event. Only a fixed set of tags is
// accepted; everything else is an error.
func (s *Session) directive(raw string, out *strings.Builder) error {
	tag := strings.TrimSpace(raw)
	switch tag {
	case "<table-title>":
		desc, err := s.collectHTML(tag, "</table-title>")
		if err != nil {
			return err
		}
		s.pending = desc
		return nil
	case "<figure-title>":
		desc, err := s.collectHTML(tag, "</figure-title>")
		if err != nil {
			return err
		}
		s.pending = desc
		return nil
	case "<cite>":
		keys, err := s.collectHTML(tag, "</cite>")
		if err != nil {
			return err
		}
		return s.emit(out, views.Citation(s.cite(keys)))
	case "<blank-line>", "<blank-line/>":
		return s.emit(out, views.BlankLine())
	}
	return &DirectiveError{Tag: tag}
}

// collectHTML renders events until a raw HTML event equal to closing. The
// enclosing element ending first means the directive was never closed.
func (s *Session) collectHTML(opening, closing string) (string, error) {
	var inner strings.Builder
	for {
		ev, ok := s.tokens.Next()
		if !ok || ev.Kind == EventEnd {
			return "", &DirectiveError{Tag: opening}
		}
		if (ev.Kind == EventHTML || ev.Kind == EventInlineHTML) && strings.TrimSpace(ev.Text) == closing {
			return inner.String(), nil
		}
		if err := s.dispatch(ev, &inner); err != nil {
			return "", err
		}
	}
}

// cite assigns numbers to the keys of one citation, reusing the number of a
// key seen before.
func (s *Session) cite(keys string) []int {
	fields := strings.FieldsFunc(keys, func(r rune) bool {
		return r == ',' || r == ' '
	})
	ids := make([]int, 0, len(fields))
	for _, key := range fields {
		n, ok := s.citations[key]
		if !ok {
			n = s.nextCite
			s.citations[key] = n
			s.nextCite++
		}
		ids = append(ids, n)
	}
	return ids
}
