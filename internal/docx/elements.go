package docx

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

// isWord reports whether el is the wordprocessingml element tag.
func isWord(el *etree.Element, tag string) bool {
	if el.Tag != tag {
		return false
	}
	if el.Space == "w" {
		return true
	}
	return el.NamespaceURI() == wordNamespace
}

// collect returns every descendant w:<tag> of root in document order.
func collect(root *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if isWord(child, tag) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

func textContent(el *etree.Element) string {
	var b strings.Builder
	for _, t := range collect(el, "t") {
		b.WriteString(t.Text())
	}
	return b.String()
}

// stripToken removes the token from every paragraph of table. Word may
// split a token over several runs, so matching happens on the paragraph
// text and each w:t loses only the characters that fell inside a match.
// Run formatting is left alone.
func stripToken(table *etree.Element, pattern *regexp.Regexp) {
	for _, p := range collect(table, "p") {
		texts := collect(p, "t")
		if len(texts) == 0 {
			continue
		}
		starts := make([]int, len(texts))
		var b strings.Builder
		for i, t := range texts {
			starts[i] = b.Len()
			b.WriteString(t.Text())
		}
		joined := b.String()
		matches := pattern.FindAllStringIndex(joined, -1)
		if len(matches) == 0 {
			continue
		}
		for i, t := range texts {
			start, end := starts[i], starts[i]+len(t.Text())
			if kept, changed := cut(joined, start, end, matches); changed {
				t.SetText(kept)
			}
		}
	}
}

// cut returns joined[start:end] without the bytes covered by matches, which
// are sorted and non-overlapping.
func cut(joined string, start, end int, matches [][]int) (string, bool) {
	var kept strings.Builder
	pos, changed := start, false
	for _, m := range matches {
		if m[1] <= pos || m[0] >= end {
			continue
		}
		changed = true
		if m[0] > pos {
			kept.WriteString(joined[pos:m[0]])
		}
		pos = m[1]
	}
	if pos < end {
		kept.WriteString(joined[pos:end])
	}
	return kept.String(), changed
}

// resetRows removes every direct row of table but the first and reports
// whether a header row was kept.
func resetRows(table *etree.Element) bool {
	var rows []*etree.Element
	for _, child := range table.ChildElements() {
		if isWord(child, "tr") {
			rows = append(rows, child)
		}
	}
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows[1:] {
		table.RemoveChild(row)
	}
	return true
}

func newRow(cells []Cell) *etree.Element {
	row := etree.NewElement("w:tr")
	for _, cell := range cells {
		tc := row.CreateElement("w:tc")
		p := tc.CreateElement("w:p")
		if cell.Align != "" {
			jc := p.CreateElement("w:pPr").CreateElement("w:jc")
			jc.CreateAttr("w:val", string(cell.Align))
		}
		t := p.CreateElement("w:r").CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(cell.Text)
	}
	return row
}
