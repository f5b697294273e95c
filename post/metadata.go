package post

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Metadata is the front matter of a post.
type Metadata struct {
	Title      string   `json:"title"`
	Date       Date     `json:"date"`
	Categories []string `json:"categories"`
	Mirror     string   `json:"mirror,omitempty"`
	Startpage  bool     `json:"startpage,omitempty"`
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	m.Categories = append([]string(nil), m.Categories...)
	return m
}

// Equal reports whether m and o hold the same values.
func (m Metadata) Equal(o Metadata) bool {
	if m.Title != o.Title || m.Date != o.Date || m.Mirror != o.Mirror || m.Startpage != o.Startpage {
		return false
	}
	if len(m.Categories) != len(o.Categories) {
		return false
	}
	for i := range m.Categories {
		if m.Categories[i] != o.Categories[i] {
			return false
		}
	}
	return true
}

// ParseError reports a malformed front matter with the offending line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing error in line %d: %s", e.Line, e.Message)
}

type metadataParser struct {
	data   []byte
	cursor int

	date       *Date
	mirror     string
	categories []string
	startpage  bool
}

// ParseMetadata reads the key/value lines, the blank separator line and the
// "# Title" line at the top of a document. It returns the metadata and the
// byte offset at which the body begins.
func ParseMetadata(data []byte) (Metadata, int, error) {
	p := &metadataParser{data: data}

	for {
		line, next, ok := p.line()
		if !ok {
			return Metadata{}, 0, p.errorf("missing blank line after metadata")
		}
		if len(bytes.TrimSpace(line)) == 0 {
			p.cursor = next
			break
		}
		if err := p.field(line); err != nil {
			return Metadata{}, 0, err
		}
		p.cursor = next
	}

	title, err := p.title()
	if err != nil {
		return Metadata{}, 0, err
	}
	for p.cursor < len(p.data) && (p.data[p.cursor] == '\n' || p.data[p.cursor] == '\r') {
		p.cursor++
	}

	if len(p.categories) == 0 {
		return Metadata{}, 0, p.errorf("no categories were specified in post")
	}
	if p.mirror == "" && p.cursor >= len(p.data) {
		return Metadata{}, 0, p.errorf("no content in post")
	}
	if p.date == nil {
		return Metadata{}, 0, p.errorf("post date was not set")
	}

	return Metadata{
		Title:      title,
		Date:       *p.date,
		Categories: p.categories,
		Mirror:     p.mirror,
		Startpage:  p.startpage,
	}, p.cursor, nil
}

// line returns the line at the cursor without its terminator and the offset
// of the following line.
func (p *metadataParser) line() ([]byte, int, bool) {
	if p.cursor >= len(p.data) {
		return nil, 0, false
	}
	rest := p.data[p.cursor:]
	end := bytes.IndexByte(rest, '\n')
	if end < 0 {
		return bytes.TrimSuffix(rest, []byte("\r")), len(p.data), true
	}
	return bytes.TrimSuffix(rest[:end], []byte("\r")), p.cursor + end + 1, true
}

func (p *metadataParser) field(line []byte) error {
	key, value, ok := bytes.Cut(line, []byte(":"))
	if !ok {
		return p.errorf("invalid metadata line: missing colon")
	}
	if !utf8.Valid(value) {
		return p.errorf("metadata value is not valid utf-8")
	}
	val := strings.TrimSpace(string(value))

	switch string(bytes.TrimSpace(key)) {
	case "date":
		d, err := ParseDate(val)
		if err != nil {
			return p.errorf("invalid date format: %v", err)
		}
		p.date = &d
	case "categories":
		cats, err := p.list(val)
		if err != nil {
			return err
		}
		p.categories = cats
	case "mirror":
		if val == "" {
			return p.errorf("invalid mirror URL")
		}
		p.mirror = val
	case "startpage":
		switch val {
		case "true":
			p.startpage = true
		case "false":
			p.startpage = false
		default:
			return p.errorf("invalid boolean value %q", val)
		}
	default:
		return p.errorf("invalid metadata key %q", string(bytes.TrimSpace(key)))
	}
	return nil
}

func (p *metadataParser) list(val string) ([]string, error) {
	var out []string
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, p.errorf("empty list item")
		}
		out = append(out, item)
	}
	return out, nil
}

func (p *metadataParser) title() (string, error) {
	line, next, ok := p.line()
	if !ok || len(line) == 0 || line[0] != '#' {
		return "", p.errorf("expected title (h1) after metadata lines")
	}
	if len(line) < 2 || line[1] != ' ' {
		return "", p.errorf("expected whitespace after hash")
	}
	if !utf8.Valid(line) {
		return "", p.errorf("title contains invalid characters")
	}
	title := strings.TrimSpace(string(line[2:]))
	if title == "" {
		return "", p.errorf("no title content given")
	}
	p.cursor = next
	return title, nil
}

func (p *metadataParser) errorf(format string, args ...any) error {
	cursor := min(p.cursor, len(p.data))
	return &ParseError{
		Line:    bytes.Count(p.data[:cursor], []byte("\n")) + 1,
		Message: fmt.Sprintf(format, args...),
	}
}
