// Package markdown compiles the blog's Markdown dialect to HTML.
//
// A Session consumes a flat token stream and renders it by recursive descent:
// every start event collects the events up to its matching end into a string
// and wraps that string with the element's template. Tables, figures and
// citations are numbered per document, and a thematic break switches the
// session into bibliography mode.
package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/spf13/afero"

	"github.com/eringen/folio/assets"
	"github.com/eringen/folio/post"
	"github.com/eringen/folio/views"
)

// Session renders exactly one document. Counters and side sets are never
// shared between documents; construct a new Session for every post.
type Session struct {
	fs   afero.Fs
	site views.SiteConfig

	ctx     context.Context
	tokens  TokenSource
	basedir string

	tables    int
	figures   int
	nextCite  int
	depth     int
	usesCode  bool
	cited     bool
	pending   string
	citations map[string]int
	languages map[string]struct{}
	mentions  map[string]struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSite sets the site settings used by the page header.
func WithSite(site views.SiteConfig) SessionOption {
	return func(s *Session) {
		s.site = site
	}
}

// NewSession creates a Session that checks file mentions on fsys. A nil fsys
// means the operating system's filesystem.
func NewSession(fsys afero.Fs, opts ...SessionOption) *Session {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	s := &Session{
		fs:        fsys,
		ctx:       context.Background(),
		tables:    1,
		figures:   1,
		nextCite:  1,
		citations: make(map[string]int),
		languages: make(map[string]struct{}),
		mentions:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileMentions returns the relative link and image targets that resolved to
// existing files, sorted.
func (s *Session) FileMentions() []string {
	return sortedKeys(s.mentions)
}

// LanguagesUsed returns the distinct code block languages, sorted.
func (s *Session) LanguagesUsed() []string {
	return sortedKeys(s.languages)
}

// UsesCode reports whether the body contained inline code or a code block.
func (s *Session) UsesCode() bool {
	return s.usesCode
}

// Citations returns the citation numbers assigned so far, keyed by cite key.
func (s *Session) Citations() map[string]int {
	out := make(map[string]int, len(s.citations))
	for k, v := range s.citations {
		out[k] = v
	}
	return out
}

// RenderHeader renders the page head, the title and the date/category line.
// Render the body first so the header can reference the languages in use.
func (s *Session) RenderHeader(ctx context.Context, p *post.Post) (string, error) {
	var out strings.Builder
	head := views.PostHead{
		Site:      s.site,
		Title:     p.Title,
		URL:       p.URL(),
		Date:      p.Date.ISO(),
		Keywords:  views.JoinCategories(p.Categories),
		UsesCode:  s.usesCode,
		Languages: s.LanguagesUsed(),
	}
	for _, c := range []templ.Component{
		views.PostHeader(head),
		views.Headline(p.Title),
		views.Categories(p.Categories, p.Date.Day, p.Date.MonthName(), p.Date.Year),
	} {
		if err := c.Render(ctx, &out); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

// RenderFooter closes the page.
func (s *Session) RenderFooter(ctx context.Context) (string, error) {
	var out strings.Builder
	if err := views.PostFooter().Render(ctx, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// RenderBody compiles a document body. Relative link and image targets are
// resolved against basedir.
func (s *Session) RenderBody(ctx context.Context, content []byte, basedir string) (string, error) {
	if !utf8.Valid(content) {
		return "", ErrNonUTF8
	}
	return s.RenderTokens(ctx, Tokenize(content), basedir)
}

// RenderTokens compiles an arbitrary token stream.
func (s *Session) RenderTokens(ctx context.Context, tokens TokenSource, basedir string) (string, error) {
	s.ctx = ctx
	s.tokens = tokens
	s.basedir = basedir

	var out strings.Builder
	for {
		ev, ok := s.tokens.Next()
		if !ok {
			break
		}
		if err := s.dispatch(ev, &out); err != nil {
			return "", err
		}
	}
	if len(s.citations) > 0 && !s.cited {
		return "", &MissingCitationError{Key: s.citationKey(1)}
	}
	return out.String(), nil
}

func (s *Session) emit(out *strings.Builder, c templ.Component) error {
	return c.Render(s.ctx, out)
}

func (s *Session) dispatch(ev Event, out *strings.Builder) error {
	switch ev.Kind {
	case EventStart:
		return s.start(ev.Tag, out)
	case EventHTML, EventInlineHTML:
		return s.directive(ev.Text, out)
	case EventCode:
		s.usesCode = true
		return s.emit(out, views.InlineCode(ev.Text))
	case EventText:
		return s.emit(out, views.Text(ev.Text))
	case EventSoftBreak:
		out.WriteByte(' ')
		return nil
	case EventHardBreak:
		return s.emit(out, views.LineBreak())
	case EventRule:
		if s.depth != 0 {
			panic(fmt.Sprintf("markdown: thematic break inside a paragraph (depth %d)", s.depth))
		}
		return s.bibliography(out)
	case EventUnsupported:
		return fmt.Errorf("%w: %s", ErrUnsupported, ev.Text)
	case EventEnd:
		panic("markdown: end event without a matching start")
	}
	return fmt.Errorf("%w: event kind %d", ErrUnsupported, ev.Kind)
}

func (s *Session) start(tag Tag, out *strings.Builder) error {
	if tag.Kind == TagHeading && tag.Level != 2 {
		return fmt.Errorf("%w (found level %d)", ErrInvalidHeading, tag.Level)
	}

	if tag.Kind == TagParagraph {
		s.depth++
	}
	data, err := s.collect()
	if tag.Kind == TagParagraph {
		s.depth--
	}
	if err != nil {
		return err
	}

	switch tag.Kind {
	case TagParagraph:
		if data == "" {
			return nil
		}
		return s.emit(out, views.Paragraph(data))
	case TagHeading:
		return s.emit(out, views.Subheading(makeID(data), data))
	case TagBlockQuote:
		return s.emit(out, views.Quote(data))
	case TagCodeBlock:
		// Indented blocks carry no info string and render like an empty fence.
		language := strings.ToLower(tag.Language)
		if language == "" {
			language = "plaintext"
		}
		s.languages[language] = struct{}{}
		s.usesCode = true
		return s.emit(out, views.Codeblock(language, data))
	case TagList:
		if tag.Ordered {
			return s.emit(out, views.OrderedList(data))
		}
		return s.emit(out, views.UnorderedList(data))
	case TagItem:
		return s.emit(out, views.ListItem(data))
	case TagTable:
		number := s.tables
		s.tables++
		return s.emit(out, views.Table(number, data, s.takeDescription()))
	case TagTableHead:
		return s.emit(out, views.TableHead(data))
	case TagTableRow:
		return s.emit(out, views.TableRow(data))
	case TagTableCell:
		return s.emit(out, views.TableCell(data))
	case TagEmphasis:
		return s.emit(out, views.Emphasis(data))
	case TagStrong:
		return s.emit(out, views.Bold(data))
	case TagStrikethrough:
		return s.emit(out, views.Strikethrough(data))
	case TagLink:
		if _, err := s.mention(tag.Dest); err != nil {
			return err
		}
		return s.emit(out, views.Link(tag.Dest, data))
	case TagImage:
		exists, err := s.mention(tag.Dest)
		if err != nil {
			return err
		}
		src := tag.Dest
		if exists && assets.IsImage(tag.Dest) {
			src = assets.OutputName(tag.Dest)
		}
		number := s.figures
		s.figures++
		return s.emit(out, views.Figure(number, src, s.takeDescription(), s.depth > 0))
	case TagHTMLBlock:
		out.WriteString(data)
		return nil
	}
	return fmt.Errorf("%w: tag kind %d", ErrUnsupported, tag.Kind)
}

// collect renders events up to the end event that closes the current element.
func (s *Session) collect() (string, error) {
	var inner strings.Builder
	for {
		ev, ok := s.tokens.Next()
		if !ok || ev.Kind == EventEnd {
			return inner.String(), nil
		}
		if err := s.dispatch(ev, &inner); err != nil {
			return "", err
		}
	}
}

func (s *Session) takeDescription() string {
	d := s.pending
	s.pending = ""
	return d
}

// mention records dest if it names an existing file relative to the
// document. Remote URLs, fragments and absolute paths are never mentions.
func (s *Session) mention(dest string) (bool, error) {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return false, nil
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		return false, nil
	}
	p := filepath.Join(s.basedir, filepath.FromSlash(dest))
	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, fmt.Errorf("check file mention %s: %w", p, err)
	}
	if info.IsDir() {
		return false, nil
	}
	s.mentions[dest] = struct{}{}
	return true, nil
}

// makeID derives a heading anchor: ASCII alphanumerics are lowercased,
// spaces become dashes, everything else is dropped, and dash runs collapse.
func makeID(text string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range text {
		switch {
		case r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			b.WriteRune(r)
			prevDash = false
		case r == ' ':
			if !prevDash {
				b.WriteByte('-')
			}
			prevDash = true
		}
	}
	return b.String()
}

// citationKey returns the key that was assigned number n.
func (s *Session) citationKey(n int) string {
	for key, m := range s.citations {
		if m == n {
			return key
		}
	}
	return ""
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
