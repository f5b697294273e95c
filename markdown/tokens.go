package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// EventKind classifies a token.
type EventKind uint8

const (
	EventStart EventKind = iota
	EventEnd
	EventText
	EventCode       // inline code span
	EventHTML       // one line of a raw HTML block
	EventInlineHTML // inline raw HTML
	EventSoftBreak
	EventHardBreak
	EventRule
	EventUnsupported
)

// TagKind names the element opened by an EventStart and closed by the
// matching EventEnd.
type TagKind uint8

const (
	TagParagraph TagKind = iota
	TagHeading
	TagBlockQuote
	TagCodeBlock
	TagList
	TagItem
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagLink
	TagImage
	TagHTMLBlock
)

// Tag carries the attributes of a container element.
type Tag struct {
	Kind     TagKind
	Level    int    // heading level
	Fenced   bool   // code block
	Language string // fenced code block info string
	Ordered  bool   // list
	Start    int    // ordered list start number
	Dest     string // link and image target
}

// Event is one structural token of a document.
type Event struct {
	Kind EventKind
	Tag  Tag
	Text string
}

// TokenSource yields the events of one document in order. Every EventStart
// is eventually followed by its EventEnd.
type TokenSource interface {
	Next() (Event, bool)
}

// Tokens walks a goldmark syntax tree lazily and emits it as a flat event
// stream. The walk keeps a single cursor node; it never buffers more than the
// events produced by one node.
type Tokens struct {
	source   []byte
	root     gmast.Node
	node     gmast.Node
	entering bool
	done     bool
	queue    []Event
}

var parserFactory = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// Tokenize parses src and returns its token stream.
func Tokenize(src []byte) *Tokens {
	root := parserFactory.Parser().Parse(text.NewReader(src))
	return &Tokens{source: src, root: root, node: root, entering: true}
}

// Next returns the next event, or false once the document is exhausted.
func (t *Tokens) Next() (Event, bool) {
	for len(t.queue) == 0 {
		if t.done {
			return Event{}, false
		}
		t.step()
	}
	ev := t.queue[0]
	t.queue = t.queue[1:]
	return ev, true
}

func (t *Tokens) step() {
	n := t.node
	if t.entering {
		if t.enter(n) && n.FirstChild() != nil {
			t.node = n.FirstChild()
			return
		}
		t.entering = false
		return
	}
	t.exit(n)
	if n == t.root {
		t.done = true
		return
	}
	if next := n.NextSibling(); next != nil {
		t.node = next
		t.entering = true
		return
	}
	t.node = n.Parent()
}

func (t *Tokens) start(tag Tag) {
	t.queue = append(t.queue, Event{Kind: EventStart, Tag: tag})
}

func (t *Tokens) emit(kind EventKind, s string) {
	t.queue = append(t.queue, Event{Kind: kind, Text: s})
}

// enter emits the opening events of n and reports whether its children
// should be walked.
func (t *Tokens) enter(n gmast.Node) bool {
	src := t.source
	switch node := n.(type) {
	case *gmast.Document, *gmast.TextBlock:
		return true
	case *gmast.Paragraph:
		t.start(Tag{Kind: TagParagraph})
	case *gmast.Heading:
		t.start(Tag{Kind: TagHeading, Level: node.Level})
	case *gmast.ThematicBreak:
		t.emit(EventRule, "")
		return false
	case *gmast.CodeBlock:
		t.start(Tag{Kind: TagCodeBlock})
		t.lines(node.Lines(), EventText)
		return false
	case *gmast.FencedCodeBlock:
		t.start(Tag{Kind: TagCodeBlock, Fenced: true, Language: string(node.Language(src))})
		t.lines(node.Lines(), EventText)
		return false
	case *gmast.Blockquote:
		t.start(Tag{Kind: TagBlockQuote})
	case *gmast.List:
		tag := Tag{Kind: TagList, Ordered: node.IsOrdered()}
		if tag.Ordered {
			tag.Start = node.Start
		}
		t.start(tag)
	case *gmast.ListItem:
		t.start(Tag{Kind: TagItem})
	case *gmast.HTMLBlock:
		t.start(Tag{Kind: TagHTMLBlock})
		t.lines(node.Lines(), EventHTML)
		if node.HasClosure() {
			t.emit(EventHTML, strings.TrimRight(string(node.ClosureLine.Value(src)), "\r\n"))
		}
		return false
	case *east.Table:
		t.start(Tag{Kind: TagTable})
	case *east.TableHeader:
		t.start(Tag{Kind: TagTableHead})
	case *east.TableRow:
		t.start(Tag{Kind: TagTableRow})
	case *east.TableCell:
		t.start(Tag{Kind: TagTableCell})
	case *gmast.Text:
		value := node.Segment.Value(src)
		if !node.IsRaw() {
			value = unescape(value)
		}
		if len(value) > 0 {
			t.emit(EventText, string(value))
		}
		switch {
		case node.HardLineBreak():
			t.emit(EventHardBreak, "")
		case node.SoftLineBreak():
			t.emit(EventSoftBreak, "")
		}
		return false
	case *gmast.String:
		if len(node.Value) > 0 {
			t.emit(EventText, string(node.Value))
		}
		return false
	case *gmast.CodeSpan:
		var buf bytes.Buffer
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch seg := c.(type) {
			case *gmast.Text:
				buf.Write(seg.Segment.Value(src))
			case *gmast.String:
				buf.Write(seg.Value)
			}
		}
		t.emit(EventCode, strings.ReplaceAll(buf.String(), "\n", " "))
		return false
	case *gmast.Emphasis:
		if node.Level >= 2 {
			t.start(Tag{Kind: TagStrong})
		} else {
			t.start(Tag{Kind: TagEmphasis})
		}
	case *east.Strikethrough:
		t.start(Tag{Kind: TagStrikethrough})
	case *gmast.Link:
		t.start(Tag{Kind: TagLink, Dest: string(node.Destination)})
	case *gmast.Image:
		t.start(Tag{Kind: TagImage, Dest: string(node.Destination)})
	case *gmast.AutoLink:
		t.start(Tag{Kind: TagLink, Dest: string(node.URL(src))})
		t.emit(EventText, string(node.Label(src)))
		return false
	case *gmast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(src))
		}
		t.emit(EventInlineHTML, buf.String())
		return false
	default:
		t.emit(EventUnsupported, n.Kind().String())
		return false
	}
	return true
}

// exit emits the closing event of n, if it opened one.
func (t *Tokens) exit(n gmast.Node) {
	var kind TagKind
	switch node := n.(type) {
	case *gmast.Paragraph:
		kind = TagParagraph
	case *gmast.Heading:
		kind = TagHeading
	case *gmast.CodeBlock, *gmast.FencedCodeBlock:
		kind = TagCodeBlock
	case *gmast.Blockquote:
		kind = TagBlockQuote
	case *gmast.List:
		kind = TagList
	case *gmast.ListItem:
		kind = TagItem
	case *gmast.HTMLBlock:
		kind = TagHTMLBlock
	case *east.Table:
		kind = TagTable
	case *east.TableHeader:
		kind = TagTableHead
	case *east.TableRow:
		kind = TagTableRow
	case *east.TableCell:
		kind = TagTableCell
	case *gmast.Emphasis:
		kind = TagEmphasis
		if node.Level >= 2 {
			kind = TagStrong
		}
	case *east.Strikethrough:
		kind = TagStrikethrough
	case *gmast.Link, *gmast.AutoLink:
		kind = TagLink
	case *gmast.Image:
		kind = TagImage
	default:
		return
	}
	t.queue = append(t.queue, Event{Kind: EventEnd, Tag: Tag{Kind: kind}})
}

func (t *Tokens) lines(lines *text.Segments, kind EventKind) {
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		value := string(line.Value(t.source))
		if kind == EventHTML {
			value = strings.TrimRight(value, "\r\n")
		}
		t.emit(kind, value)
	}
}

func unescape(b []byte) []byte {
	b = util.UnescapePunctuations(b)
	b = util.ResolveNumericReferences(b)
	return util.ResolveEntityNames(b)
}
