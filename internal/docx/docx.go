// Package docx fills Office Open XML word-processing templates: it swaps the
// rows of one table for generated rows and substitutes placeholder tokens.
package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/beevik/etree"
)

const (
	// DocumentPart is the archive entry holding the main document body.
	DocumentPart = "word/document.xml"
	// ContentType is the MIME type of .docx files.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	// Extension is the file extension of generated documents.
	Extension = ".docx"

	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// Token names recognised in templates, written as {NAME} or {{NAME}}.
const (
	TokenProductsTable = "PRODUCTS_TABLE"
	TokenCustomerName  = "CUSTOMER_NAME"
	TokenDate          = "DATE"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

type Cell struct {
	Text  string
	Align Alignment
}

// Fill describes what to write into a template.
type Fill struct {
	// TableToken marks the target table. Empty uses TokenProductsTable.
	TableToken string
	Rows       [][]Cell
	// Replacements maps token names to their document-wide values.
	Replacements map[string]string
}

// Result is the outcome of Render.
type Result struct {
	Data []byte
	// TargetTable is the document-order index of the table that received rows.
	TargetTable int
	HeaderKept  bool
}

var knownPatterns = map[string]*regexp.Regexp{
	TokenProductsTable: compileToken(TokenProductsTable),
	TokenCustomerName:  compileToken(TokenCustomerName),
	TokenDate:          compileToken(TokenDate),
}

// TokenPattern matches NAME wrapped in one or two braces on each side. The
// built-in tokens share precompiled patterns.
func TokenPattern(name string) *regexp.Regexp {
	if p, ok := knownPatterns[name]; ok {
		return p
	}
	return compileToken(name)
}

func compileToken(name string) *regexp.Regexp {
	return regexp.MustCompile(`\{\{?` + regexp.QuoteMeta(name) + `\}\}?`)
}

// Render applies fill to the template archive and returns the new archive.
// Every entry other than DocumentPart is copied without recompression.
func Render(template []byte, fill Fill) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeTemplateUnreadable, err, "template is not a zip archive")
	}
	part := findEntry(zr, DocumentPart)
	if part == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeTemplateUnreadable, DocumentPart+" missing from template")
	}
	raw, err := readEntry(part)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeTemplateUnreadable, err, "read "+DocumentPart)
	}

	body, target, headerKept, err := renderDocument(raw, fill)
	if err != nil {
		return Result{}, err
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		if f != part {
			if err := zw.Copy(f); err != nil {
				return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy "+f.Name)
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Comment:  f.Comment,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create "+DocumentPart)
		}
		if _, err := w.Write(body); err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write "+DocumentPart)
		}
	}
	if err := zw.Close(); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize archive")
	}
	return Result{Data: out.Bytes(), TargetTable: target, HeaderKept: headerKept}, nil
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func renderDocument(raw []byte, fill Fill) ([]byte, int, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, 0, false, pkgerrors.Wrap(pkgerrors.CodeTemplateMalformed, err, "parse "+DocumentPart)
	}
	if doc.Root() == nil {
		return nil, 0, false, pkgerrors.New(pkgerrors.CodeTemplateMalformed, DocumentPart+" has no root element")
	}

	tables := collect(doc.Root(), "tbl")
	if len(tables) == 0 {
		return nil, 0, false, pkgerrors.New(pkgerrors.CodeTemplateMissingTable, "template has no tables")
	}

	token := fill.TableToken
	if token == "" {
		token = TokenProductsTable
	}
	pattern := TokenPattern(token)

	target := 0
	for i, tbl := range tables {
		if pattern.MatchString(textContent(tbl)) {
			target = i
			stripToken(tbl, pattern)
			break
		}
	}
	table := tables[target]

	headerKept := resetRows(table)
	for _, cells := range fill.Rows {
		table.AddChild(newRow(cells))
	}

	serialized, err := doc.WriteToBytes()
	if err != nil {
		return nil, 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize "+DocumentPart)
	}
	return ReplaceTokens(serialized, fill.Replacements), target, headerKept, nil
}

// ReplaceTokens substitutes every brace-tolerant token in serialized XML.
// Values are XML-escaped.
func ReplaceTokens(serialized []byte, replacements map[string]string) []byte {
	names := make([]string, 0, len(replacements))
	for name := range replacements {
		names = append(names, name)
	}
	// longest first so a token never clobbers another that contains it
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		escaped := escapeXML(replacements[name])
		serialized = TokenPattern(name).ReplaceAllLiteral(serialized, []byte(escaped))
	}
	return serialized
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
