package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// The components below receive inner markup that the compiler has already
// rendered and escaped; only plain strings (text, URLs, ids) are escaped here.

func Text(content string) templ.Component {
	return component(esc(content))
}

func Paragraph(content string) templ.Component {
	return component("<p>", content, "</p>")
}

func Subheading(id, content string) templ.Component {
	return component(`<h2 id="`, esc(id), `"><a class="anchor" href="#`, esc(id), `">`, content, "</a></h2>")
}

func Quote(content string) templ.Component {
	return component("<blockquote>", content, "</blockquote>")
}

func Codeblock(language, content string) templ.Component {
	lang := esc(language)
	return component(
		`<div class="code-block-wrapper"><span class="code-lang code-lang-`, lang, `">`, lang, `</span>`,
		`<pre class="code-block"><code class="language-`, lang, `">`, content, "</code></pre></div>",
	)
}

func InlineCode(content string) templ.Component {
	return component("<code>", esc(content), "</code>")
}

func OrderedList(items string) templ.Component {
	return component("<ol>", items, "</ol>")
}

func UnorderedList(items string) templ.Component {
	return component("<ul>", items, "</ul>")
}

func ListItem(content string) templ.Component {
	return component("<li>", content, "</li>")
}

func Table(number int, content, description string) templ.Component {
	n := strconv.Itoa(number)
	return component(
		`<figure class="table" id="table-`, n, `"><table>`, content, `</table>`,
		`<figcaption><span class="caption-label">Table `, n, `:</span> `, description, `</figcaption></figure>`,
	)
}

func TableHead(content string) templ.Component {
	return component("<thead><tr>", content, "</tr></thead>")
}

func TableRow(content string) templ.Component {
	return component("<tr>", content, "</tr>")
}

func TableCell(content string) templ.Component {
	return component("<td>", content, "</td>")
}

func Emphasis(content string) templ.Component {
	return component("<em>", content, "</em>")
}

func Bold(content string) templ.Component {
	return component("<strong>", content, "</strong>")
}

func Strikethrough(content string) templ.Component {
	return component("<del>", content, "</del>")
}

func Link(url, content string) templ.Component {
	return component(`<a href="`, esc(url), `" class="underline decoration-2 underline-offset-4">`, content, "</a>")
}

// Figure renders an image with its caption. Inside a paragraph only phrasing
// content is allowed, so spans replace the figure elements there.
func Figure(number int, url, description string, insideParagraph bool) templ.Component {
	n := strconv.Itoa(number)
	img := `<img src="` + esc(url) + `" alt="Figure ` + n + `" loading="lazy" decoding="async"/>`
	caption := `<span class="caption-label">Figure ` + n + `:</span> ` + description
	if insideParagraph {
		return component(`<span class="figure" id="figure-`, n, `">`, img, `<span class="figcaption">`, caption, `</span></span>`)
	}
	return component(`<figure id="figure-`, n, `">`, img, `<figcaption>`, caption, `</figcaption></figure>`)
}

func LineBreak() templ.Component {
	return component("<br/>")
}

func BlankLine() templ.Component {
	return component(`<span class="blank-line"></span>`)
}

// Citation renders the inline marker for one <cite> directive.
func Citation(ids []int) templ.Component {
	var b strings.Builder
	b.WriteString(`<sup class="cite">[`)
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		n := strconv.Itoa(id)
		b.WriteString(`<a href="#ref-` + n + `">` + n + `</a>`)
	}
	b.WriteString("]</sup>")
	return component(b.String())
}

func Bibliography(references []Reference) templ.Component {
	var b strings.Builder
	b.WriteString(`<section class="bibliography"><h2 id="references">References</h2><ol>`)
	for _, r := range references {
		n := strconv.Itoa(r.Number)
		b.WriteString(`<li id="ref-` + n + `" value="` + n + `">` + r.Content + `</li>`)
	}
	b.WriteString("</ol></section>")
	return component(b.String())
}
