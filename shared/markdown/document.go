// Package markdown turns model-written markdown into a small, whitelisted
// document tree and renders that tree as escaped HTML. Raw HTML, links and
// anything outside the whitelist never reach the output.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindList      Kind = "list"
	KindListItem  Kind = "list_item"
	KindStrong    Kind = "strong"
	KindEmphasis  Kind = "emphasis"
	KindCode      Kind = "code"
	KindCodeBlock Kind = "code_block"
	KindBreak     Kind = "break"
	KindText      Kind = "text"
)

type Node struct {
	Kind     Kind    `json:"type"`
	Level    int     `json:"level,omitempty"`
	Ordered  bool    `json:"ordered,omitempty"`
	Text     string  `json:"text,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

type Document struct {
	Children []*Node `json:"children"`
}

const extensions = parser.NoIntraEmphasis | parser.FencedCode | parser.Strikethrough |
	parser.SpaceHeadings | parser.Autolink

// Parse converts markdown source into a whitelisted document.
func Parse(src string) *Document {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	root := markdown.Parse([]byte(src), parser.NewWithExtensions(extensions))

	doc := &Document{Children: []*Node{}}
	for _, child := range root.GetChildren() {
		doc.Children = append(doc.Children, convert(child)...)
	}
	doc.Children = mergeText(doc.Children)
	return doc
}

// convert maps one AST node onto zero or more whitelisted nodes. Unknown
// containers are flattened so their text survives without their markup.
func convert(n ast.Node) []*Node {
	switch v := n.(type) {
	case *ast.HTMLBlock, *ast.HTMLSpan, *ast.HorizontalRule, *ast.Image:
		return nil
	case *ast.Text:
		if len(v.Literal) == 0 {
			return nil
		}
		return []*Node{{Kind: KindText, Text: string(v.Literal)}}
	case *ast.Softbreak:
		return []*Node{{Kind: KindText, Text: " "}}
	case *ast.Hardbreak:
		return []*Node{{Kind: KindBreak}}
	case *ast.Code:
		return []*Node{{Kind: KindCode, Text: string(v.Literal)}}
	case *ast.CodeBlock:
		return []*Node{{Kind: KindCodeBlock, Text: strings.TrimRight(string(v.Literal), "\n")}}
	case *ast.Heading:
		level := min(max(v.Level, 1), 6)
		return []*Node{{Kind: KindHeading, Level: level, Children: children(n)}}
	case *ast.Paragraph:
		kids := children(n)
		if len(kids) == 0 {
			return nil
		}
		return []*Node{{Kind: KindParagraph, Children: kids}}
	case *ast.List:
		return []*Node{{Kind: KindList, Ordered: v.ListFlags&ast.ListTypeOrdered != 0, Children: children(n)}}
	case *ast.ListItem:
		var kids []*Node
		for _, c := range children(n) {
			if c.Kind == KindParagraph {
				kids = append(kids, c.Children...)
				continue
			}
			kids = append(kids, c)
		}
		kids = mergeText(kids)
		if last := len(kids) - 1; last >= 0 && kids[last].Kind == KindText {
			kids[last].Text = strings.TrimRight(kids[last].Text, "\n ")
		}
		return []*Node{{Kind: KindListItem, Children: kids}}
	case *ast.Strong:
		return []*Node{{Kind: KindStrong, Children: children(n)}}
	case *ast.Emph:
		return []*Node{{Kind: KindEmphasis, Children: children(n)}}
	default:
		return children(n)
	}
}

func children(n ast.Node) []*Node {
	var out []*Node
	for _, c := range n.GetChildren() {
		out = append(out, convert(c)...)
	}
	return mergeText(out)
}

func mergeText(nodes []*Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == KindText && len(out) > 0 && out[len(out)-1].Kind == KindText {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

// PlainText flattens the document into text, one block per line.
func (d *Document) PlainText() string {
	var b strings.Builder
	for _, n := range d.Children {
		writePlain(&b, n)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n *Node) {
	switch n.Kind {
	case KindText, KindCode, KindCodeBlock:
		b.WriteString(n.Text)
	case KindBreak:
		b.WriteByte('\n')
	}
	for i, c := range n.Children {
		if n.Kind == KindList && i > 0 {
			b.WriteByte('\n')
		}
		writePlain(b, c)
	}
}
