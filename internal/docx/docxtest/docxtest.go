// Package docxtest builds small .docx archives for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

const WordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// Entry is one archive member. Store disables compression.
type Entry struct {
	Name  string
	Data  []byte
	Store bool
}

// StylesXML and ImageBytes are the non-document parts added by Template.
var (
	StylesXML  = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:styles xmlns:w="` + WordNS + `"><w:style w:styleId="Grid"/></w:styles>`)
	ImageBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 1, 2, 3, 4}
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`

// Document wraps body in a w:document root.
func Document(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + WordNS + `"><w:body>` + body + `</w:body></w:document>`
}

// Para is a paragraph holding one run of text.
func Para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

// Row is a table row with one paragraph per cell.
func Row(cells ...string) string {
	out := `<w:tr>`
	for _, c := range cells {
		out += `<w:tc>` + Para(c) + `</w:tc>`
	}
	return out + `</w:tr>`
}

// Table wraps rows in a w:tbl with a style property.
func Table(rows ...string) string {
	out := `<w:tbl><w:tblPr><w:tblStyle w:val="Grid"/></w:tblPr>`
	for _, r := range rows {
		out += r
	}
	return out + `</w:tbl>`
}

// Template builds a .docx with the given document.xml plus content types,
// styles and a stored image.
func Template(t testing.TB, documentXML string) []byte {
	t.Helper()
	return Archive(t,
		Entry{Name: "[Content_Types].xml", Data: []byte(contentTypes)},
		Entry{Name: "word/document.xml", Data: []byte(documentXML)},
		Entry{Name: "word/styles.xml", Data: StylesXML},
		Entry{Name: "word/media/image1.png", Data: ImageBytes, Store: true},
	)
}

// Archive zips entries in order.
func Archive(t testing.TB, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		method := zip.Deflate
		if e.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			t.Fatalf("create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

// Read returns the entry names in archive order and their contents.
func Read(t testing.TB, data []byte) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	contents := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		names = append(names, f.Name)
		contents[f.Name] = b
	}
	return names, contents
}

// RawEntries returns the still-compressed payload of each entry.
func RawEntries(t testing.TB, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		r, err := f.OpenRaw()
		if err != nil {
			t.Fatalf("open raw %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read raw %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}
