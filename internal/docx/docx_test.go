package docx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/angelmondragon/pricelist/internal/docx/docxtest"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/beevik/etree"
)

func parseOutput(t *testing.T, data []byte) (*etree.Document, string) {
	t.Helper()
	_, entries := docxtest.Read(t, data)
	raw, ok := entries[DocumentPart]
	if !ok {
		t.Fatalf("output has no %s", DocumentPart)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		t.Fatalf("output document does not parse: %v\n%s", err, raw)
	}
	return doc, string(raw)
}

func directRows(tbl *etree.Element) []*etree.Element {
	var rows []*etree.Element
	for _, child := range tbl.ChildElements() {
		if child.Space == "w" && child.Tag == "tr" {
			rows = append(rows, child)
		}
	}
	return rows
}

func cellTexts(row *etree.Element) []string {
	var out []string
	for _, tc := range row.ChildElements() {
		if tc.Tag == "tc" {
			out = append(out, textContent(tc))
		}
	}
	return out
}

func sampleRows() [][]Cell {
	return [][]Cell{
		{{"$ 20", AlignCenter}, {"2", AlignCenter}, {"10", AlignCenter}, {"Axial", AlignRight}},
		{{"$ 25", AlignCenter}, {"1", AlignCenter}, {"25", AlignCenter}, {"Roof", AlignRight}},
	}
}

func TestRenderTargetsPlaceholderTable(t *testing.T) {
	header := docxtest.Row("Total", "Qty", "Unit", "Name")
	body := docxtest.Table(docxtest.Row("info"), docxtest.Row("keep me")) +
		docxtest.Table(header, docxtest.Row("{{PRODUCTS_TABLE}}"), docxtest.Row("old", "1", "1", "stale"))
	tpl := docxtest.Template(t, docxtest.Document(body))

	res, err := Render(tpl, Fill{Rows: sampleRows()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.TargetTable != 1 || !res.HeaderKept {
		t.Fatalf("unexpected result meta %+v", res)
	}

	doc, raw := parseOutput(t, res.Data)
	tables := collect(doc.Root(), "tbl")
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables got %d", len(tables))
	}
	if got := len(directRows(tables[0])); got != 2 {
		t.Fatalf("non-target table should be untouched, has %d rows", got)
	}

	rows := directRows(tables[1])
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if !strings.Contains(raw, header) {
		t.Fatalf("header row not preserved verbatim:\n%s", raw)
	}
	if got := strings.Join(cellTexts(rows[1]), "|"); got != "$ 20|2|10|Axial" {
		t.Fatalf("unexpected first data row %q", got)
	}
	if got := strings.Join(cellTexts(rows[2]), "|"); got != "$ 25|1|25|Roof" {
		t.Fatalf("unexpected second data row %q", got)
	}
	if strings.Contains(raw, "stale") || strings.Contains(raw, "PRODUCTS_TABLE") {
		t.Fatalf("old rows or token survived:\n%s", raw)
	}

	var aligns []string
	for _, jc := range collect(rows[1], "jc") {
		aligns = append(aligns, jc.SelectAttrValue("w:val", ""))
	}
	if strings.Join(aligns, ",") != "center,center,center,right" {
		t.Fatalf("unexpected alignments %v", aligns)
	}
	for _, text := range collect(rows[1], "t") {
		if text.SelectAttrValue("xml:space", "") != "preserve" {
			t.Fatalf("generated w:t should preserve space")
		}
	}
}

func TestRenderFallsBackToFirstTable(t *testing.T) {
	body := docxtest.Table(docxtest.Row("H"), docxtest.Row("x")) + docxtest.Table(docxtest.Row("second"))
	res, err := Render(docxtest.Template(t, docxtest.Document(body)), Fill{Rows: sampleRows()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.TargetTable != 0 {
		t.Fatalf("expected first table, got %d", res.TargetTable)
	}
	doc, _ := parseOutput(t, res.Data)
	tables := collect(doc.Root(), "tbl")
	if len(directRows(tables[0])) != 3 || len(directRows(tables[1])) != 1 {
		t.Fatalf("rows landed in the wrong table")
	}
}

func TestRenderStripsTokenKeepsFormatting(t *testing.T) {
	header := `<w:tr><w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Name {PRODUCTS_TABLE}}</w:t></w:r></w:p></w:tc></w:tr>`
	res, err := Render(docxtest.Template(t, docxtest.Document(docxtest.Table(header))), Fill{Rows: sampleRows()[:1]})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, raw := parseOutput(t, res.Data)
	rows := directRows(collect(doc.Root(), "tbl")[0])
	if got := cellTexts(rows[0]); len(got) != 1 || got[0] != "Name " {
		t.Fatalf("token not stripped cleanly: %q", got)
	}
	if !strings.Contains(raw, "<w:b/>") {
		t.Fatalf("run formatting lost:\n%s", raw)
	}
}

func TestRenderStripsTokenSplitAcrossRuns(t *testing.T) {
	header := `<w:tr><w:tc><w:p>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>Hdr {PRODUCTS_</w:t></w:r>` +
		`<w:r><w:t>TABLE}</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve"> tail</w:t></w:r>` +
		`</w:p></w:tc><w:tc>` + docxtest.Para("Qty") + `</w:tc></w:tr>`
	body := docxtest.Table(docxtest.Row("intro")) + docxtest.Table(header)
	res, err := Render(docxtest.Template(t, docxtest.Document(body)), Fill{Rows: sampleRows()[:1]})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.TargetTable != 1 {
		t.Fatalf("expected second table targeted, got %d", res.TargetTable)
	}
	doc, raw := parseOutput(t, res.Data)
	rows := directRows(collect(doc.Root(), "tbl")[1])
	if got := cellTexts(rows[0]); len(got) != 2 || got[0] != "Hdr  tail" || got[1] != "Qty" {
		t.Fatalf("split token not stripped: %q", got)
	}
	if strings.Contains(raw, "PRODUCTS_") || strings.Contains(raw, "TABLE}") {
		t.Fatalf("token fragments left behind:\n%s", raw)
	}
	if !strings.Contains(raw, "<w:b/>") {
		t.Fatalf("run formatting lost:\n%s", raw)
	}
}

func TestCutRemovesMatchedBytes(t *testing.T) {
	joined := "ab{X}cd{X}"
	matches := [][]int{{2, 5}, {7, 10}}
	cases := []struct {
		start, end int
		want       string
		changed    bool
	}{
		{0, 3, "ab", true},
		{3, 6, "c", true},
		{6, 10, "d", true},
		{0, 2, "ab", false},
	}
	for _, tc := range cases {
		got, changed := cut(joined, tc.start, tc.end, matches)
		if got != tc.want || changed != tc.changed {
			t.Fatalf("cut(%d,%d) = %q,%v want %q,%v", tc.start, tc.end, got, changed, tc.want, tc.changed)
		}
	}
}

func TestRenderReplacesTokensDocumentWide(t *testing.T) {
	body := docxtest.Para("Customer: {CUSTOMER_NAME}") +
		docxtest.Para("Date: {{DATE}} / {DATE}") +
		docxtest.Table(docxtest.Row("{{CUSTOMER_NAME}}"), docxtest.Row("x")) +
		docxtest.Table(docxtest.Row("{PRODUCTS_TABLE}"))
	res, err := Render(docxtest.Template(t, docxtest.Document(body)), Fill{
		Rows: sampleRows(),
		Replacements: map[string]string{
			TokenCustomerName: `A & B <"Co">`,
			TokenDate:         "01/02/2024",
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, raw := parseOutput(t, res.Data)
	if strings.Contains(raw, "CUSTOMER_NAME") || strings.Contains(raw, "{DATE") {
		t.Fatalf("tokens left behind:\n%s", raw)
	}
	texts := textContent(doc.Root())
	for _, want := range []string{`Customer: A & B <"Co">`, "Date: 01/02/2024 / 01/02/2024"} {
		if !strings.Contains(texts, want) {
			t.Fatalf("missing %q in %q", want, texts)
		}
	}
	first := collect(doc.Root(), "tbl")[0]
	if got := cellTexts(directRows(first)[0]); got[0] != `A & B <"Co">` {
		t.Fatalf("replacement should reach every table, got %q", got)
	}
}

func TestRenderKeepsOtherEntriesByteIdentical(t *testing.T) {
	tpl := docxtest.Template(t, docxtest.Document(docxtest.Table(docxtest.Row("H"))))
	res, err := Render(tpl, Fill{Rows: sampleRows()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	inNames, inEntries := docxtest.Read(t, tpl)
	outNames, outEntries := docxtest.Read(t, res.Data)
	if strings.Join(inNames, ",") != strings.Join(outNames, ",") {
		t.Fatalf("entry order changed: %v vs %v", inNames, outNames)
	}
	inRaw := docxtest.RawEntries(t, tpl)
	outRaw := docxtest.RawEntries(t, res.Data)
	for _, name := range inNames {
		if name == DocumentPart {
			continue
		}
		if !bytes.Equal(inEntries[name], outEntries[name]) {
			t.Fatalf("entry %s content changed", name)
		}
		if !bytes.Equal(inRaw[name], outRaw[name]) {
			t.Fatalf("entry %s compressed payload changed", name)
		}
	}
	if bytes.Equal(inEntries[DocumentPart], outEntries[DocumentPart]) {
		t.Fatal("document part should change")
	}
}

func TestRenderOnlyDropsDirectRows(t *testing.T) {
	nested := docxtest.Table(docxtest.Row("n1"), docxtest.Row("n2"))
	header := `<w:tr><w:tc>` + nested + docxtest.Para("") + `</w:tc></w:tr>`
	body := docxtest.Table(header, docxtest.Row("{PRODUCTS_TABLE}"))
	res, err := Render(docxtest.Template(t, docxtest.Document(body)), Fill{Rows: sampleRows()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, _ := parseOutput(t, res.Data)
	tables := collect(doc.Root(), "tbl")
	outer := tables[0]
	if len(directRows(outer)) != 3 {
		t.Fatalf("expected header + 2 rows in outer table, got %d", len(directRows(outer)))
	}
	if len(directRows(tables[1])) != 2 {
		t.Fatalf("nested table rows should be untouched")
	}
}

func TestRenderTableWithoutRows(t *testing.T) {
	body := `<w:tbl><w:tblPr/></w:tbl>`
	res, err := Render(docxtest.Template(t, docxtest.Document(body)), Fill{Rows: sampleRows()})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.HeaderKept {
		t.Fatal("no header row existed")
	}
	doc, _ := parseOutput(t, res.Data)
	if got := len(directRows(collect(doc.Root(), "tbl")[0])); got != 2 {
		t.Fatalf("expected 2 rows got %d", got)
	}
}

func TestRenderErrors(t *testing.T) {
	cases := []struct {
		name string
		tpl  []byte
		code pkgerrors.Code
	}{
		{"not a zip", []byte("plain text"), pkgerrors.CodeTemplateUnreadable},
		{"missing document part", docxtest.Archive(t, docxtest.Entry{Name: "word/styles.xml", Data: docxtest.StylesXML}), pkgerrors.CodeTemplateUnreadable},
		{"malformed xml", docxtest.Template(t, `<w:document xmlns:w="`+docxtest.WordNS+`"><w:body><w:p attr="oops></w:body></w:document>`), pkgerrors.CodeTemplateMalformed},
		{"empty document", docxtest.Template(t, ""), pkgerrors.CodeTemplateMalformed},
		{"no tables", docxtest.Template(t, docxtest.Document(docxtest.Para("hello"))), pkgerrors.CodeTemplateMissingTable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Render(tc.tpl, Fill{Rows: sampleRows()})
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestTokenPattern(t *testing.T) {
	p := TokenPattern("DATE")
	for _, s := range []string{"{DATE}", "{{DATE}}", "{DATE}}", "{{DATE}"} {
		if got := p.ReplaceAllString("a"+s+"b", "X"); got != "aXb" {
			t.Fatalf("%q: expected aXb got %q", s, got)
		}
	}
	if p.MatchString("DATE") || p.MatchString("{DATES}") {
		t.Fatal("pattern should require braces around the exact name")
	}
	for _, name := range []string{TokenProductsTable, TokenCustomerName, TokenDate} {
		if TokenPattern(name) != TokenPattern(name) {
			t.Fatalf("%s pattern is compiled on every call", name)
		}
	}
	if custom := TokenPattern("TOTAL"); !custom.MatchString("{{TOTAL}}") {
		t.Fatal("custom token names still compile")
	}
}

func TestReplaceTokensEscapesAndIsLiteral(t *testing.T) {
	out := ReplaceTokens([]byte("<w:t>{CUSTOMER_NAME}</w:t>"), map[string]string{TokenCustomerName: "$1 & <x>"})
	if string(out) != "<w:t>$1 &amp; &lt;x&gt;</w:t>" {
		t.Fatalf("unexpected replacement %q", out)
	}
}
