package analysis

import (
	"archive/zip"
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

var plmRows = [][]string{
	{"PLM export"},
	{},
	{"ID", "Title", "Problem", "Resolved by", "Owner", "CL Number", "Comment"},
	{"1", "VOC-1 crash", "boot loop", "Fixed via /Data Protocol/", "ann", "CL100", ""},
	{"2", "MR-2 lag", "slow ui", "", "bob", "", "seen in /data protocol/ review"},
	{},
	{"3", "Other-3", "noise", "", "", "", ""},
}

func readFixture(t *testing.T, opt ReadOptions, sheets ...Sheet) (*Table, error) {
	t.Helper()
	b, err := BuildXLSX(sheets...)
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	return ReadSheet(bytes.NewReader(b), int64(len(b)), opt)
}

func TestReadSheetSelectsColumnsInHeaderOrder(t *testing.T) {
	opt := ReadOptions{Sheet: "Sheet1", SkipRows: 2, Columns: []string{"Title", "Problem", "Resolved by", "Comment", "CL Number"}}
	tbl, err := readFixture(t, opt, Sheet{Name: "Sheet1", Rows: plmRows})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	wantCols := []string{"Title", "Problem", "Resolved by", "CL Number", "Comment"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, wantCols)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3 (blank row dropped)", tbl.Len())
	}
	if got := tbl.Value(0, "CL Number"); got != "CL100" {
		t.Errorf("CL Number[0] = %q", got)
	}
	if got := tbl.Value(1, "Comment"); got != "seen in /data protocol/ review" {
		t.Errorf("Comment[1] = %q", got)
	}
	if got := tbl.Value(2, "Title"); got != "Other-3" {
		t.Errorf("Title[2] = %q", got)
	}
	if got := tbl.Value(1, "CL Number"); got != "" {
		t.Errorf("absent CL Number should be empty, got %q", got)
	}
	if tbl.Index("Owner") != -1 {
		t.Errorf("unselected column leaked into table")
	}
}

func TestReadSheetSkipCountsBlankRows(t *testing.T) {
	// Row 2 is absent from the XML entirely; the header is still row 3.
	rows := [][]string{{"banner"}, {}, {"Title"}, {"VOC-9"}}
	tbl, err := readFixture(t, ReadOptions{Sheet: "Sheet1", SkipRows: 2, Columns: []string{"Title"}}, Sheet{Name: "Sheet1", Rows: rows})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][0] != "VOC-9" {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
}

func TestReadSheetHeaderIsFirstNonBlankRow(t *testing.T) {
	rows := [][]string{{"banner"}, {"sub"}, {}, {"Title"}, {"VOC-9"}}
	tbl, err := readFixture(t, ReadOptions{Sheet: "Sheet1", SkipRows: 2, Columns: []string{"Title"}}, Sheet{Name: "Sheet1", Rows: rows})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][0] != "VOC-9" {
		t.Fatalf("unexpected rows: %v", tbl.Rows)
	}
}

func TestReadSheetErrors(t *testing.T) {
	t.Run("sheet name is case-sensitive", func(t *testing.T) {
		_, err := readFixture(t, ReadOptions{Sheet: "Sheet1"}, Sheet{Name: "sheet1", Rows: plmRows})
		if !errors.Is(err, ErrSheetNotFound) {
			t.Fatalf("want ErrSheetNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "sheet1") {
			t.Errorf("error should list available sheets: %v", err)
		}
	})
	t.Run("missing column", func(t *testing.T) {
		rows := [][]string{{}, {}, {"Title", "Comment"}, {"VOC", "x"}}
		_, err := readFixture(t, ReadOptions{Sheet: "Sheet1", SkipRows: 2, Columns: []string{"Title", "CL Number"}}, Sheet{Name: "Sheet1", Rows: rows})
		if !errors.Is(err, ErrMissingColumns) {
			t.Fatalf("want ErrMissingColumns, got %v", err)
		}
		if !strings.Contains(err.Error(), "CL Number") {
			t.Errorf("error should name the missing column: %v", err)
		}
	})
	t.Run("empty sheet has no header", func(t *testing.T) {
		_, err := readFixture(t, ReadOptions{Sheet: "Sheet1", SkipRows: 2, Columns: []string{"Title"}}, Sheet{Name: "Sheet1"})
		if !errors.Is(err, ErrMissingColumns) {
			t.Fatalf("want ErrMissingColumns, got %v", err)
		}
	})
	t.Run("not a zip", func(t *testing.T) {
		b := []byte("Title,Problem\nVOC,x\n")
		_, err := ReadSheet(bytes.NewReader(b), int64(len(b)), ReadOptions{Sheet: "Sheet1"})
		if !errors.Is(err, ErrInvalidWorkbook) {
			t.Fatalf("want ErrInvalidWorkbook, got %v", err)
		}
	})
	t.Run("zip without workbook", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		f, _ := zw.Create("hello.txt")
		_, _ = f.Write([]byte("hi"))
		_ = zw.Close()
		_, err := ReadSheet(bytes.NewReader(buf.Bytes()), int64(buf.Len()), ReadOptions{Sheet: "Sheet1"})
		if !errors.Is(err, ErrInvalidWorkbook) {
			t.Fatalf("want ErrInvalidWorkbook, got %v", err)
		}
	})
}

func TestReadSheetPicksNamedSheet(t *testing.T) {
	other := Sheet{Name: "Summary", Rows: [][]string{{"Title"}, {"MR-77"}}}
	main := Sheet{Name: "Sheet1", Rows: [][]string{{"Title"}, {"VOC-1"}, {"VOC-2"}}}
	tbl, err := readFixture(t, ReadOptions{Sheet: "Sheet1", Columns: []string{"Title"}}, other, main)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tbl.Len() != 2 || tbl.Rows[1][0] != "VOC-2" {
		t.Fatalf("read wrong sheet: %v", tbl.Rows)
	}
}

func zipParts(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip: %v", err)
		}
		_, _ = f.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// singleSheet is a workbook whose Sheet1 part is the given sheetData body.
func singleSheet(t *testing.T, sheetData string) []byte {
	t.Helper()
	return zipParts(t, map[string]string{
		"xl/workbook.xml":            `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml":   `<worksheet><sheetData>` + sheetData + `</sheetData></worksheet>`,
	})
}

func TestReadSheetRejectsColumnsPastXFD(t *testing.T) {
	for _, ref := range []string{"XFE1", "ZZZZZZZ1", "ZZZZZZZZZZZZZZZZZZZZZZZZ1"} {
		t.Run(ref, func(t *testing.T) {
			b := singleSheet(t, `<row r="1"><c r="`+ref+`" t="inlineStr"><is><t>Title</t></is></c></row>`)
			_, err := ReadSheet(bytes.NewReader(b), int64(len(b)), ReadOptions{Sheet: "Sheet1", Columns: []string{"Title"}})
			if !errors.Is(err, ErrInvalidWorkbook) {
				t.Fatalf("want ErrInvalidWorkbook, got %v", err)
			}
			if !strings.Contains(err.Error(), "XFD") {
				t.Errorf("error should name the column limit: %v", err)
			}
		})
	}
}

func TestReadSheetRejectsOversizedPart(t *testing.T) {
	old := maxPartBytes
	maxPartBytes = 1 << 10
	t.Cleanup(func() { maxPartBytes = old })

	b := singleSheet(t, `<row r="1"><c r="A1" t="inlineStr"><is><t>`+strings.Repeat("x", 4<<10)+`</t></is></c></row>`)
	_, err := ReadSheet(bytes.NewReader(b), int64(len(b)), ReadOptions{Sheet: "Sheet1"})
	if !errors.Is(err, ErrInvalidWorkbook) {
		t.Fatalf("want ErrInvalidWorkbook, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("unexpected error: %v", err)
	}
}

// Workbooks saved by spreadsheet applications use shared strings and rich text runs.
func TestReadSheetSharedStringsAndTypes(t *testing.T) {
	files := map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId7"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId7" Target="/xl/worksheets/data.xml"/></Relationships>`,
		"xl/sharedStrings.xml": `<sst><si><t>Title</t></si><si><r><t>VOC</t></r><r><t>-5</t></r><rPh><t>ignored</t></rPh></si><si><t>Flag</t></si></sst>`,
		"xl/worksheets/data.xml": `<worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>2</v></c><c r="C1" t="inlineStr"><is><t>N</t></is></c></row>` +
			`<row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2" t="b"><v>1</v></c><c r="C2"><v>42</v></c></row>` +
			`</sheetData></worksheet>`,
	}
	b := zipParts(t, files)
	tbl, err := ReadSheet(bytes.NewReader(b), int64(len(b)), ReadOptions{Sheet: "Sheet1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := [][]string{{"VOC-5", "True", "42"}}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("rows = %q, want %q", tbl.Rows, want)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"Title", "Flag", "N"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
}

func TestWriteXLSXRejectsNoSheets(t *testing.T) {
	if _, err := BuildXLSX(); err == nil {
		t.Fatal("expected error for empty workbook")
	}
}
