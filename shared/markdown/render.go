package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Component renders the document as HTML. Every text run is escaped.
func (d *Document) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, n := range d.Children {
			if err := renderNode(w, n); err != nil {
				return err
			}
		}
		return nil
	})
}

// HTML renders the document to a string.
func (d *Document) HTML(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := d.Component().Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

var tags = map[Kind]string{
	KindParagraph: "p",
	KindListItem:  "li",
	KindStrong:    "strong",
	KindEmphasis:  "em",
}

func renderNode(w io.Writer, n *Node) error {
	switch n.Kind {
	case KindText:
		return write(w, templ.EscapeString(n.Text))
	case KindBreak:
		return write(w, "<br>")
	case KindCode:
		return write(w, "<code>", templ.EscapeString(n.Text), "</code>")
	case KindCodeBlock:
		return write(w, "<pre><code>", templ.EscapeString(n.Text), "</code></pre>")
	case KindHeading:
		tag := "h" + strconv.Itoa(min(max(n.Level, 1), 6))
		return wrap(w, tag, n.Children)
	case KindList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		return wrap(w, tag, n.Children)
	default:
		tag, ok := tags[n.Kind]
		if !ok {
			return nil
		}
		return wrap(w, tag, n.Children)
	}
}

func wrap(w io.Writer, tag string, children []*Node) error {
	if err := write(w, "<", tag, ">"); err != nil {
		return err
	}
	for _, c := range children {
		if err := renderNode(w, c); err != nil {
			return err
		}
	}
	return write(w, "</", tag, ">")
}

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

// Rendered is the JSON shape returned for an AI summary.
type Rendered struct {
	Markdown string    `json:"markdown"`
	Document *Document `json:"document"`
	HTML     string    `json:"html"`
}

// Render parses src and renders it in one step.
func Render(ctx context.Context, src string) (*Rendered, error) {
	doc := Parse(src)
	html, err := doc.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return &Rendered{Markdown: src, Document: doc, HTML: html}, nil
}
