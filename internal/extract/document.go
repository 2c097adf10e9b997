// Package extract turns notification emails into a normalized label/value map
// and exposes typed accessors over it.
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the parsed form of one email. It is immutable after Parse.
type Document struct {
	Subject  string
	fields   map[string]string
	haystack string
}

// Parse reads label/value pairs out of the HTML tables of an email and builds
// the free-text haystack used by the regex fallbacks.
//
// Two passes feed the same map. The column pass reads a row holding two
// side-by-side nested tables as parallel label and value columns. The row pass
// then reads every two-cell row as (label, value), so it wins on conflict.
func Parse(subject, htmlBody, textBody string) *Document {
	doc := &Document{
		Subject: strings.TrimSpace(subject),
		fields:  make(map[string]string),
	}

	var visible string
	if strings.TrimSpace(htmlBody) != "" {
		root, err := html.Parse(strings.NewReader(htmlBody))
		if err == nil {
			doc.columnPass(root)
			doc.rowPass(root)
			visible = visibleText(root)
		}
	}

	doc.haystack = strings.Join([]string{doc.Subject, visible, textBody}, "\n")
	return doc
}

// Fields returns a copy of the normalized label map.
func (d *Document) Fields() map[string]string {
	out := make(map[string]string, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	return out
}

// Haystack is the concatenation of subject, visible HTML text and plain text.
func (d *Document) Haystack() string {
	return d.haystack
}

// Lookup returns the value stored under the normalized form of label.
func (d *Document) Lookup(label string) (string, bool) {
	v, ok := d.fields[NormalizeLabel(label)]
	return v, ok && v != ""
}

func (d *Document) put(label, value string) {
	key := NormalizeLabel(label)
	value = collapseSpaces(value)
	if key == "" || value == "" {
		return
	}
	d.fields[key] = value
}

func (d *Document) columnPass(root *html.Node) {
	walk(root, func(n *html.Node) {
		if n.DataAtom != atom.Tr {
			return
		}

		var tables []*html.Node
		for _, cell := range cells(n) {
			if t := firstDescendant(cell, atom.Table); t != nil {
				tables = append(tables, t)
			}
		}
		if len(tables) != 2 {
			return
		}

		labels := columnTexts(tables[0])
		values := columnTexts(tables[1])
		for i := 0; i < len(labels) && i < len(values); i++ {
			d.put(labels[i], values[i])
		}
	})
}

func (d *Document) rowPass(root *html.Node) {
	walk(root, func(n *html.Node) {
		if n.DataAtom != atom.Tr {
			return
		}

		row := cells(n)
		if len(row) != 2 {
			return
		}
		for _, cell := range row {
			if firstDescendant(cell, atom.Table) != nil {
				return
			}
		}

		d.put(nodeText(row[0]), nodeText(row[1]))
	})
}

// columnTexts returns the text of each row that belongs directly to table.
func columnTexts(table *html.Node) []string {
	var out []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				out = append(out, nodeText(c))
			default:
				visit(c)
			}
		}
	}
	visit(table)
	return out
}

func cells(tr *html.Node) []*html.Node {
	var out []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			out = append(out, c)
		}
	}
	return out
}

func firstDescendant(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == a {
			return c
		}
		if found := firstDescendant(c, a); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return collapseSpaces(b.String())
}

var blockElements = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Tr: true, atom.Li: true,
	atom.Table: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
}

// visibleText renders the tree as lines, breaking at block elements.
func visibleText(root *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	visit(root)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
