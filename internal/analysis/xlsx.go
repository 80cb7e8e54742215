package analysis

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
)

var (
	// ErrInvalidWorkbook indicates the input is not a readable .xlsx package.
	ErrInvalidWorkbook = errors.New("invalid xlsx workbook")
	// ErrSheetNotFound indicates the requested worksheet name is not in the workbook.
	ErrSheetNotFound = errors.New("worksheet not found")
	// ErrMissingColumns indicates required header names are absent.
	ErrMissingColumns = errors.New("columns expected but not found")
)

// MaxColumns is the spreadsheet column limit (XFD).
const MaxColumns = 16384

// maxPartBytes caps the decompressed size of a single package part.
var maxPartBytes int64 = 256 << 20

// ReadOptions selects what ReadSheet extracts from a workbook.
type ReadOptions struct {
	// Sheet is the exact (case-sensitive) worksheet name.
	Sheet string
	// SkipRows is the number of leading spreadsheet rows above the header.
	SkipRows int
	// Columns lists required header names. Empty means every column.
	Columns []string
}

// ReadSheet parses an .xlsx package and returns the selected worksheet as a Table.
// Rows are positioned by their spreadsheet row number, so blank rows inside the
// skipped region still count. The first non-blank row after the skipped region
// is the header; blank data rows are dropped.
func ReadSheet(r io.ReaderAt, size int64, opt ReadOptions) (*Table, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %w", ErrInvalidWorkbook, err)
	}
	workbookXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	// Relationships and shared strings are optional parts.
	relsXML, err := readOptionalZipFile(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	sharedXML, err := readOptionalZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}

	sheets := parseWorkbook(workbookXML)
	rels := parseRelationships(relsXML)
	target, err := resolveSheetPath(sheets, rels, opt.Sheet)
	if err != nil {
		return nil, err
	}
	sheetXML, err := readZipFile(zr, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}

	rr := newSheetRowReader(sheetXML, parseSharedStrings(sharedXML))
	var header []string
	var records [][]string
	for {
		num, row, ok := rr.Next()
		if !ok {
			break
		}
		if num <= opt.SkipRows || isBlankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		records = append(records, row)
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidWorkbook, target, err)
	}

	idx, names, err := selectColumns(header, opt.Columns)
	if err != nil {
		return nil, err
	}
	t := &Table{Sheet: opt.Sheet, Columns: names, Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		out := make([]string, len(idx))
		for i, j := range idx {
			if j < len(rec) {
				out[i] = rec[j]
			}
		}
		t.Rows = append(t.Rows, out)
	}
	return t, nil
}

// resolveSheetPath maps a worksheet name to its ZIP entry.
func resolveSheetPath(sheets []wbSheet, rels map[string]string, name string) (string, error) {
	for _, s := range sheets {
		if s.Name != name {
			continue
		}
		if rel, ok := rels[s.RID]; ok {
			return normalizeRelPath(rel), nil
		}
		// guess by worksheets/sheetN.xml
		return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", s.SheetID)), nil
	}
	available := make([]string, len(sheets))
	for i, s := range sheets {
		available[i] = s.Name
	}
	return "", fmt.Errorf("%w: %q (available sheets: %s)", ErrSheetNotFound, name, strings.Join(available, ", "))
}

// selectColumns returns header positions of the wanted columns in header order.
// Duplicate header names resolve to their first occurrence.
func selectColumns(header []string, want []string) ([]int, []string, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	if len(want) == 0 {
		idx := make([]int, len(header))
		names := make([]string, len(header))
		for i, h := range header {
			idx[i] = i
			names[i] = strings.TrimSpace(h)
		}
		return idx, names, nil
	}
	var missing []string
	idx := make([]int, 0, len(want))
	for _, w := range want {
		i, ok := pos[w]
		if !ok {
			missing = append(missing, w)
			continue
		}
		idx = append(idx, i)
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: [%s]", ErrMissingColumns, strings.Join(missing, ", "))
	}
	sort.Ints(idx)
	idx = dedupeSorted(idx)
	names := make([]string, len(idx))
	for i, j := range idx {
		names[i] = strings.TrimSpace(header[j])
	}
	return idx, names, nil
}

func dedupeSorted(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i > 0 && x == xs[i-1] {
			continue
		}
		out = append(out, x)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var s wbSheet
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					s.Name = a.Value
				case "sheetId":
					s.SheetID = atoiSafe(a.Value)
				case "id":
					s.RID = a.Value // in r: namespace
				}
			}
			sheets = append(sheets, s)
		}
	}
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var id, target string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "Id":
					id = a.Value
				case "Target":
					target = a.Value
				}
			}
			if id != "" && target != "" {
				out[id] = target
			}
		}
	}
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		if f.UncompressedSize64 > uint64(maxPartBytes) {
			return nil, fmt.Errorf("read %s: part exceeds %d bytes", name, maxPartBytes)
		}
		// the header size can lie, so the read is capped as well
		b, err := io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if int64(len(b)) > maxPartBytes {
			return nil, fmt.Errorf("read %s: part exceeds %d bytes", name, maxPartBytes)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
}

// readOptionalZipFile is readZipFile where a missing part is not an error.
func readOptionalZipFile(zr *zip.Reader, name string) ([]byte, error) {
	b, err := readZipFile(zr, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// parseSharedStrings concatenates the text runs of every <si>, ignoring phonetic runs.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	var phonetic int
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "rPh":
				phonetic++
			case "t":
				inT = phonetic == 0
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "rPh":
				phonetic--
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams <row> elements of a worksheet part.
type sheetRowReader struct {
	dec     *xml.Decoder
	shared  []string
	lastRow int
	err     error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the 1-based spreadsheet row number and the cell values of the
// next row. Cells absent from the XML are empty strings.
func (r *sheetRowReader) Next() (int, []string, bool) {
	var cur []string
	num := 0
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return 0, nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				cur = nil
				num = r.lastRow + 1
				for _, a := range se.Attr {
					if a.Name.Local == "r" {
						if n := atoiSafe(a.Value); n > 0 {
							num = n
						}
					}
				}
			}
			if inRow && se.Name.Local == "c" {
				// cell: attributes r (A1), t (type)
				var rAttr, tAttr string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						rAttr = a.Value
					case "t":
						tAttr = a.Value
					}
				}
				colIdx := len(cur)
				if rAttr != "" {
					colIdx = colIndexFromRef(rAttr)
				}
				if colIdx < 0 {
					colIdx = len(cur)
				}
				if colIdx >= MaxColumns {
					r.err = fmt.Errorf("cell %q is beyond column %s", rAttr, colRef(MaxColumns-1))
					return 0, nil, false
				}
				val, err := r.readCellValue(tAttr)
				if err != nil {
					r.err = err
					return 0, nil, false
				}
				if len(cur) <= colIdx {
					tmp := make([]string, colIdx+1)
					copy(tmp, cur)
					cur = tmp
				}
				cur[colIdx] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				r.lastRow = num
				return num, cur, true
			}
		}
	}
}

// Err reports a decoding error that stopped Next early.
func (r *sheetRowReader) Err() error { return r.err }

// readCellValue consumes tokens up to </c> and returns the resolved cell text.
func (r *sheetRowReader) readCellValue(tAttr string) (string, error) {
	var v, inline strings.Builder
	var inV, inT bool
	phonetic := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "v":
				inV = true
			case "rPh":
				phonetic++
			case "t":
				inT = phonetic == 0
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "v":
				inV = false
			case "t":
				inT = false
			case "rPh":
				phonetic--
			case "c":
				return r.resolve(tAttr, v.String(), inline.String()), nil
			}
		case xml.CharData:
			if inV {
				v.Write(se)
			}
			if inT {
				inline.Write(se)
			}
		}
	}
}

func (r *sheetRowReader) resolve(tAttr, v, inline string) string {
	switch tAttr {
	case "s": // shared string
		idx := atoiSafe(v)
		if idx >= 0 && idx < len(r.shared) {
			return r.shared[idx]
		}
		return ""
	case "inlineStr":
		return inline
	case "b":
		switch strings.TrimSpace(v) {
		case "1":
			return "True"
		case "0":
			return "False"
		}
		return v
	default:
		return v
	}
}

// helpers for refs like "C12" -> 2 (0-based index). Indexes past MaxColumns
// are clamped to MaxColumns.
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
		if idx > MaxColumns {
			return MaxColumns
		}
	}
	return idx - 1
}

// colRef is the inverse of colIndexFromRef: 0 -> "A", 27 -> "AB".
func colRef(idx int) string {
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship Target paths to ZIP-compatible paths.
// Relationships may have leading slashes (e.g., "/xl/worksheets/sheet1.xml")
// but ZIP entries don't include the leading slash.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
