package glossimport

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownImporter reads Markdown with goldmark. Pipe tables become
// definitions; paragraphs, list items and code blocks keep their source
// lines untouched.
type MarkdownImporter struct{}

func (p *MarkdownImporter) Import(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	var b builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(sourceLines(node, src))
			return
		case *east.Table:
			for row := node.FirstChild(); row != nil; row = row.NextSibling() {
				if _, ok := row.(*east.TableHeader); ok {
					cells := tableCells(row, src)
					if !isHeaderRow(cells) {
						b.row(cells)
					}
					continue
				}
				b.row(tableCells(row, src))
			}
			return
		case *ast.Paragraph, *ast.TextBlock, *ast.CodeBlock, *ast.FencedCodeBlock:
			b.text(sourceLines(node, src))
			return
		case *ast.HTMLBlock, *ast.ThematicBreak:
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}

// sourceLines returns a block's lines as written in the source, so
// dictionary syntax survives Markdown's inline rules.
func sourceLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
		if !bytes.HasSuffix(line.Value(src), []byte("\n")) {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func tableCells(row ast.Node, src []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, strings.TrimSpace(inlineText(c, src)))
	}
	return cells
}

func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
