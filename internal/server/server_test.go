package server

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
	"github.com/KaramelBytes/plmview-cli/internal/report"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var header = []string{"Title", "Problem", "Resolved by", "CL Number", "Comment"}

func workbook(t *testing.T, header []string, rows ...[]string) []byte {
	t.Helper()
	all := append([][]string{{"PLM export"}, {"generated"}, header}, rows...)
	b, err := analysis.BuildXLSX(analysis.Sheet{Name: "Sheet1", Rows: all})
	require.NoError(t, err)
	return b
}

func upload(t *testing.T, h http.Handler, filename string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, uploadPath, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newTestServer() *Server {
	return New(Options{MaxUploadMB: 1, Report: report.Options{TableRows: 100}}, zap.NewNop())
}

func TestIndexRendersForm(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `action="/upload"`)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))
}

func TestUploadSuccess(t *testing.T) {
	s := newTestServer()
	body := workbook(t, header,
		[]string{"VOC-1", "p", "Fixed by team", "CL1", ""},
		[]string{"MR-2", "p", "", "", "see /Data Protocol/"},
		[]string{"Misc", "p", "fixed", "", ""},
	)
	rec := upload(t, s.Handler(), "plm.xlsx", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := rec.Body.String()
	assert.Contains(t, page, report.SuccessMessage)
	assert.Contains(t, page, "Analysis for VOC PLM&#39;s")
	assert.Contains(t, page, "<svg")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.uploads.WithLabelValues(outcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.rows.WithLabelValues("VOC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.rows.WithLabelValues("MR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.rows.WithLabelValues("Others")))
}

func TestUploadFailures(t *testing.T) {
	noCL := []string{"Title", "Problem", "Resolved by", "Comment"}

	tests := []struct {
		name     string
		filename string
		body     []byte
		status   int
		outcome  string
		contains string
	}{
		{"missing column", "plm.xlsx", nil, http.StatusUnprocessableEntity, outcomeLoadFailure, "error reading the Excel file"},
		{"corrupt workbook", "plm.xlsx", []byte("not a zip"), http.StatusUnprocessableEntity, outcomeLoadFailure, "error reading the Excel file"},
		{"no file", "", nil, http.StatusBadRequest, outcomeRejected, "no file uploaded"},
		{"wrong extension", "plm.csv", []byte("Title\n"), http.StatusBadRequest, outcomeRejected, "unsupported file type"},
		{"too large", "big.xlsx", bytes.Repeat([]byte("x"), 3<<20), http.StatusRequestEntityTooLarge, outcomeRejected, "upload limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			body := tt.body
			if tt.name == "missing column" {
				body = workbook(t, noCL, []string{"VOC-1", "p", "", ""})
			}
			rec := upload(t, s.Handler(), tt.filename, body)

			assert.Equal(t, tt.status, rec.Code)
			page := rec.Body.String()
			assert.Contains(t, page, tt.contains)
			assert.Contains(t, page, `role="alert"`)
			assert.NotContains(t, page, report.SuccessMessage)
			assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.uploads.WithLabelValues(tt.outcome)))
			assert.Equal(t, 0.0, testutil.ToFloat64(s.metrics.uploads.WithLabelValues(outcomeSuccess)))
		})
	}
}

// A failed upload after a good one shows only the error.
func TestUploadsAreIndependent(t *testing.T) {
	s := newTestServer()
	good := workbook(t, header, []string{"VOC-unique-title", "p", "", "", ""})

	rec := upload(t, s.Handler(), "a.xlsx", good)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "VOC-unique-title")

	rec = upload(t, s.Handler(), "b.xlsx", []byte("broken"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotContains(t, rec.Body.String(), "VOC-unique-title")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	upload(t, s.Handler(), "plm.xlsx", workbook(t, header, []string{"MR-1", "", "", "", ""}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `plmview_uploads_total{outcome="success"} 1`)
	assert.Contains(t, text, `plmview_rows_classified_total{category="MR"} 1`)
	assert.Contains(t, text, "plmview_upload_duration_seconds_count 1")
}

func TestRecoveryReturns500(t *testing.T) {
	s := newTestServer()
	h := s.requestID(s.recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestUploadRejectsGet(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, uploadPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), report.SuccessMessage))
}

// A cell reference past the last spreadsheet column is a load failure, and the
// next upload still succeeds.
func TestUploadOutOfRangeCellRef(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"xl/workbook.xml":            `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml":   `<worksheet><sheetData><row r="3"><c r="ZZZZZZZ3" t="inlineStr"><is><t>Title</t></is></c></row></sheetData></worksheet>`,
	}
	for name, body := range parts {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	s := newTestServer()
	rec := upload(t, s.Handler(), "crafted.xlsx", buf.Bytes())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error reading the Excel file")

	rec = upload(t, s.Handler(), "plm.xlsx", workbook(t, header, []string{"VOC-1", "", "", "", ""}))
	assert.Equal(t, http.StatusOK, rec.Code)
}
