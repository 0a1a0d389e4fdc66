package cli

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/pricelist/internal/catalog"
	"github.com/angelmondragon/pricelist/internal/docx/docxtest"
	"github.com/angelmondragon/pricelist/internal/export"
	"github.com/angelmondragon/pricelist/internal/quote"
	"github.com/angelmondragon/pricelist/pkg/kvstore"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	app     *App
	svc     *catalog.Service
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	outDir  string
	tmplDir string
}

func templateBytes(t *testing.T) []byte {
	t.Helper()
	body := docxtest.Para("Customer: {CUSTOMER_NAME}") +
		docxtest.Table(docxtest.Row("Total", "Qty", "Unit", "Name"), docxtest.Row("{{PRODUCTS_TABLE}}"))
	return docxtest.Template(t, docxtest.Document(body))
}

func newHarness(t *testing.T, input string, withTemplate bool) *harness {
	t.Helper()
	ctx := context.Background()
	svc, err := catalog.NewService(catalog.ServiceParams{Store: kvstore.NewMemory()})
	require.NoError(t, err)
	_, err = svc.AddFan(ctx, catalog.Fan{Name: "Axial", Airflow: "1200 m3/h", PriceWholesale: decimal.NewFromInt(10), PriceRetail: decimal.NewFromInt(14), Quantity: 3})
	require.NoError(t, err)
	_, err = svc.AddFan(ctx, catalog.Fan{Name: "Roof", Airflow: "800 m3/h", PriceWholesale: decimal.NewFromInt(20), PriceRetail: decimal.NewFromInt(25), Quantity: 3})
	require.NoError(t, err)

	tmplDir := t.TempDir()
	if withTemplate {
		require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "format.docx"), templateBytes(t), 0o600))
	}

	h := &harness{svc: svc, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}, outDir: t.TempDir(), tmplDir: tmplDir}
	h.app, err = New(Params{
		Catalog:       svc,
		Renderers:     []export.Renderer{export.PDFRenderer{}},
		TemplatePaths: []string{filepath.Join(tmplDir, "format.docx")},
		Clock:         func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) },
		ExportOptions: export.Options{CurrencyPrefix: "$ "},
		Present:       quote.PresentOptions{CurrencyCode: "USD"},
		OutputDir:     h.outDir,
		Locale:        "en",
		In:            strings.NewReader(input),
		Out:           h.out,
		Err:           h.errOut,
	})
	require.NoError(t, err)
	h.app.render = func(md string) (string, error) { return md, nil }
	return h
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewRequiresCatalog(t *testing.T) {
	_, err := New(Params{})
	require.Error(t, err)
}

func TestBuilderSession(t *testing.T) {
	script := strings.Join([]string{
		"add 1",
		"add 2 retail 3",
		"add 1",
		"qty 1 0",
		"qty 1 4",
		"up 2",
		"rm 9",
		"bogus",
		"export",
		"Acme Corp",
		"01/02/2024",
		"quit",
	}, "\n") + "\n"
	h := newHarness(t, script, true)

	status := run(t, &builderCmd{app: h.app})
	require.Equal(t, subcommands.ExitSuccess, status)

	errs := h.errOut.String()
	assert.Contains(t, errs, "this item is already in the price list")
	assert.Contains(t, errs, "no price list line at that position")
	assert.Contains(t, errs, `unknown command "bogus"`)

	out := h.out.String()
	assert.Contains(t, out, "Quantity unchanged")
	assert.Contains(t, out, "**Grand total: $115.00**")
	assert.Contains(t, out, "Saved ")

	assert.Equal(t, []string{"price_list_Acme_Corp_01_02_2024.docx"}, outputFiles(t, h.outDir))
	data, err := os.ReadFile(filepath.Join(h.outDir, "price_list_Acme_Corp_01_02_2024.docx"))
	require.NoError(t, err)
	_, entries := docxtest.Read(t, data)
	doc := string(entries["word/document.xml"])
	assert.Contains(t, doc, "Customer: Acme Corp")
	assert.Less(t, strings.Index(doc, "Roof"), strings.Index(doc, "Axial"), "rows follow the moved order")
	assert.Contains(t, doc, "$ 75")
	assert.Contains(t, doc, "$ 40")
}

func TestBuilderEmptyExportWritesNothing(t *testing.T) {
	h := newHarness(t, "export\nAcme\n\nquit\n", true)
	require.Equal(t, subcommands.ExitSuccess, run(t, &builderCmd{app: h.app}))
	assert.Contains(t, h.errOut.String(), "price list is empty")
	assert.Empty(t, outputFiles(t, h.outDir))
}

func TestBuilderTemplateDeclined(t *testing.T) {
	h := newHarness(t, "add 1\nexport\nAcme\n\nn\nquit\n", false)
	require.Equal(t, subcommands.ExitSuccess, run(t, &builderCmd{app: h.app}))
	assert.Contains(t, h.errOut.String(), "template file not found")
	assert.Empty(t, outputFiles(t, h.outDir))
}

func TestBuilderTemplateChosenManually(t *testing.T) {
	picked := filepath.Join(t.TempDir(), "custom.docx")
	require.NoError(t, os.WriteFile(picked, templateBytes(t), 0o600))

	h := newHarness(t, "add 2\nexport\nAcme\n\ny\n"+picked+"\nquit\n", false)
	require.Equal(t, subcommands.ExitSuccess, run(t, &builderCmd{app: h.app}))
	assert.Empty(t, h.errOut.String())
	assert.Equal(t, []string{"price_list_Acme_01_02_2024.docx"}, outputFiles(t, h.outDir))
}

func TestBuilderTemplateChoiceCancelledIsSilent(t *testing.T) {
	h := newHarness(t, "add 1\nexport\nAcme\n\ny\n\nshow\nquit\n", false)
	require.Equal(t, subcommands.ExitSuccess, run(t, &builderCmd{app: h.app}))
	assert.Empty(t, h.errOut.String())
	assert.Empty(t, outputFiles(t, h.outDir))
	assert.Contains(t, h.out.String(), "Axial", "quote survives a cancelled export")
}

func TestBuilderSearchSortsByName(t *testing.T) {
	h := newHarness(t, "search\nsearch roof\nquit\n", true)
	require.Equal(t, subcommands.ExitSuccess, run(t, &builderCmd{app: h.app}))
	out := h.out.String()
	first := strings.Index(out, "Axial")
	require.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, strings.Index(out, "Roof"))
}

func TestBatchExport(t *testing.T) {
	h := newHarness(t, "", true)
	quotePath := filepath.Join(t.TempDir(), "quote.json")
	require.NoError(t, os.WriteFile(quotePath, []byte(`{"customer":"Beta","date":"05/06/2024","lines":[{"id":2,"tier":"retail","quantity":2},{"id":1}]}`), 0o600))

	status := run(t, &exportCmd{app: h.app}, "-quote", quotePath, "-format", "pdf")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	assert.Equal(t, []string{"price_list_Beta_05_06_2024.pdf"}, outputFiles(t, h.outDir))

	status = run(t, &exportCmd{app: h.app}, "-quote", quotePath, "-customer", "Gamma Ltd")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	assert.Contains(t, outputFiles(t, h.outDir), "price_list_Gamma_Ltd_05_06_2024.docx")
}

func TestBatchExportRejectsInvalidFile(t *testing.T) {
	h := newHarness(t, "", true)
	quotePath := filepath.Join(t.TempDir(), "quote.json")
	require.NoError(t, os.WriteFile(quotePath, []byte(`{"lines":[{"id":1,"tier":"vip"}]}`), 0o600))

	require.Equal(t, subcommands.ExitFailure, run(t, &exportCmd{app: h.app}, "-quote", quotePath))
	assert.Contains(t, h.errOut.String(), "Error: validation failed")

	h.errOut.Reset()
	require.NoError(t, os.WriteFile(quotePath, []byte(`{"lines":[{"id":42}]}`), 0o600))
	require.Equal(t, subcommands.ExitFailure, run(t, &exportCmd{app: h.app}, "-quote", quotePath))
	assert.Contains(t, h.errOut.String(), "record not found")
	assert.Empty(t, outputFiles(t, h.outDir))
}

func TestListCommand(t *testing.T) {
	h := newHarness(t, "", true)
	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{app: h.app}, "-q", "m3/h"))
	out := h.out.String()
	assert.Contains(t, out, "| 1 | Axial | 1200 m3/h | $10.00 | $14.00 | 3 |")
	assert.Less(t, strings.Index(out, "Axial"), strings.Index(out, "Roof"))

	h.out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{app: h.app}, "-type", "flexible"))
	assert.Contains(t, h.out.String(), "No flexible ducts found")

	h.out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{app: h.app}, "-limit", "1"))
	first := h.out.String()
	assert.Contains(t, first, "Axial")
	assert.NotContains(t, first, "Roof")
	idx := strings.Index(first, "-cursor ")
	require.GreaterOrEqual(t, idx, 0)
	cursor := strings.TrimSpace(first[idx+len("-cursor "):])

	h.out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{app: h.app}, "-limit", "1", "-cursor", cursor))
	assert.Contains(t, h.out.String(), "Roof")
	assert.NotContains(t, h.out.String(), "Next page")

	require.Equal(t, subcommands.ExitFailure, run(t, &listCmd{app: h.app}, "-cursor", "garbage!"))
	require.Equal(t, subcommands.ExitFailure, run(t, &listCmd{app: h.app}, "-type", "pumps"))
	assert.Contains(t, h.errOut.String(), "validation failed")
}

func TestListSortByColumn(t *testing.T) {
	h := newHarness(t, "", true)
	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{app: h.app}, "-sort", "retail", "-desc"))
	out := h.out.String()
	assert.Less(t, strings.Index(out, "Roof"), strings.Index(out, "Axial"))

	h.out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{app: h.app}, "-sort", "retail", "-desc", "-limit", "1"))
	assert.Contains(t, h.out.String(), "Roof")
	assert.NotContains(t, h.out.String(), "Axial")

	require.Equal(t, subcommands.ExitFailure, run(t, &listCmd{app: h.app}, "-sort", "colour"))
	assert.Contains(t, h.errOut.String(), "cannot sort by")
}

func TestAddEditRemoveRecords(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "", true)

	status := run(t, &addCmd{app: h.app}, "-name", "Inline", "-airflow", "300 m3/h", "-wholesale", "5.5", "-retail", "8", "-stock", "2")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	assert.Contains(t, h.out.String(), "Added fan 3")
	assert.Contains(t, h.out.String(), "| 3 | Inline | 300 m3/h | $5.50 | $8.00 | 2 |")

	status = run(t, &editCmd{app: h.app}, "-id", "3", "-retail", "9", "-description", "duct fan")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	fan, err := h.svc.GetFan(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Inline", fan.Name, "unset flags keep their value")
	assert.Equal(t, "duct fan", fan.Description)
	assert.True(t, fan.PriceRetail.Equal(decimal.NewFromInt(9)))
	assert.True(t, fan.PriceWholesale.Equal(decimal.RequireFromString("5.5")))

	status = run(t, &addCmd{app: h.app}, "-type", "sheet_metal", "-thickness", "0.8 mm", "-dimensions", "1x2 m", "-cost", "12")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	sheets, err := h.svc.ListSheetMetal(ctx)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "1x2 m", sheets[0].Dimensions)

	status = run(t, &addCmd{app: h.app}, "-type", "flexible", "-description", "Alu duct", "-diameter", "150", "-meter", "2.5")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	status = run(t, &editCmd{app: h.app}, "-type", "flexible", "-id", "1", "-collection", "Pro")
	require.Equal(t, subcommands.ExitSuccess, status, h.errOut.String())
	flex, err := h.svc.GetFlexible(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pro", flex.Collection)
	assert.Equal(t, "150", flex.Diameter)

	require.Equal(t, subcommands.ExitSuccess, run(t, &rmCmd{app: h.app}, "-id", "3"))
	assert.Contains(t, h.out.String(), "Deleted fan 3")
	_, err = h.svc.GetFan(ctx, 3)
	require.Error(t, err)
	require.Equal(t, subcommands.ExitSuccess, run(t, &rmCmd{app: h.app}, "-type", "sheet_metal", "-id", "1"))
	assert.Empty(t, h.errOut.String())
}

func TestRecordCommandsRejectBadInput(t *testing.T) {
	h := newHarness(t, "", true)
	cases := []struct {
		cmd  subcommands.Command
		args []string
		want string
	}{
		{&addCmd{app: h.app}, []string{"-airflow", "10"}, "-name is required"},
		{&addCmd{app: h.app}, []string{"-name", "X", "-wholesale", "cheap"}, "validation failed"},
		{&addCmd{app: h.app}, []string{"-name", "X", "-stock", "-1"}, "validation failed"},
		{&addCmd{app: h.app}, []string{"-name", "X", "-cost", "3"}, "-cost does not apply to fans"},
		{&addCmd{app: h.app}, []string{"-name", "X", "-id", "7"}, "ids are assigned"},
		{&addCmd{app: h.app}, []string{"-type", "pumps", "-name", "X"}, "validation failed"},
		{&editCmd{app: h.app}, []string{"-name", "X"}, "-id is required"},
		{&editCmd{app: h.app}, []string{"-id", "42", "-name", "X"}, "record not found"},
		{&editCmd{app: h.app}, []string{"-id", "1", "-retail", "-4"}, "prices must not be negative"},
		{&rmCmd{app: h.app}, []string{"-type", "flexible", "-id", "1"}, "record not found"},
	}
	for _, tc := range cases {
		h.errOut.Reset()
		require.Equal(t, subcommands.ExitFailure, run(t, tc.cmd, tc.args...), tc.args)
		assert.Contains(t, h.errOut.String(), tc.want, tc.args)
	}

	fans, err := h.svc.ListFans(context.Background())
	require.NoError(t, err)
	assert.Len(t, fans, 2)
	assert.True(t, fans[0].PriceRetail.Equal(decimal.NewFromInt(14)))
}

func TestBackupAndImportRoundTrip(t *testing.T) {
	src := newHarness(t, "", true)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "backup.json")
	xlsxPath := filepath.Join(dir, "fans.xlsx")

	require.Equal(t, subcommands.ExitSuccess, run(t, &backupCmd{app: src.app}, "-out", jsonPath))
	require.Equal(t, subcommands.ExitSuccess, run(t, &backupCmd{app: src.app}, "-out", xlsxPath))

	ctx := context.Background()
	dst := newHarness(t, "", true)
	require.NoError(t, dst.svc.DeleteFan(ctx, 1))
	require.NoError(t, dst.svc.DeleteFan(ctx, 2))

	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{app: dst.app}, "-file", jsonPath))
	fans, err := dst.svc.ListFans(ctx)
	require.NoError(t, err)
	require.Len(t, fans, 2)

	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{app: dst.app}, "-file", xlsxPath))
	assert.Contains(t, dst.out.String(), "Imported 2 fans")
	fans, err = dst.svc.ListFans(ctx)
	require.NoError(t, err)
	assert.Len(t, fans, 4)

	require.Equal(t, subcommands.ExitFailure, run(t, &importCmd{app: dst.app}))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "price_list_A_B_01_02_2024.docx", safeFilename("price_list_A/B_01_02_2024.docx"))
	assert.Equal(t, "a_b", safeFilename(`a\b`))
	assert.Equal(t, "price_list", safeFilename(".."))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.docx")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, writeFileAtomic(path, []byte("new")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, []string{"out.docx"}, outputFiles(t, dir))

	err = writeFileAtomic(filepath.Join(dir, "missing", "x.docx"), []byte("x"))
	require.Error(t, err)
}
