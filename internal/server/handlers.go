package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/KaramelBytes/plmview-cli/internal/report"
	"go.uber.org/zap"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory;
// the rest spills to temp files.
const multipartMemory = 32 << 20

func (s *Server) newPage(errMsg string) report.Page {
	return report.Page{
		Error:       errMsg,
		UploadURL:   uploadPath,
		MaxUploadMB: s.opt.MaxUploadMB,
		Opt:         s.opt.Report,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, p report.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := report.RenderPage(w, p); err != nil {
		logger(r.Context()).Error("render page", zap.Error(err))
	}
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) error {
	s.render(w, r, http.StatusOK, s.newPage(""))
	return nil
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) postUpload(w http.ResponseWriter, r *http.Request) error {
	start := time.Now()
	log := logger(r.Context())
	limit := s.opt.maxUploadBytes()

	// multipart framing needs a little room above the file limit
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.metrics.upload(outcomeRejected)
		if isTooLarge(err) {
			return &pageError{status: http.StatusRequestEntityTooLarge, err: fmt.Errorf("file exceeds the %d MB upload limit", s.opt.MaxUploadMB)}
		}
		return &pageError{status: http.StatusBadRequest, err: fmt.Errorf("parse upload: %w", err)}
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.metrics.upload(outcomeRejected)
		return &pageError{status: http.StatusBadRequest, err: errors.New("no file uploaded: choose an .xlsx file")}
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".xlsx") {
		s.metrics.upload(outcomeRejected)
		return &pageError{status: http.StatusBadRequest, err: fmt.Errorf("unsupported file type %q: choose an .xlsx file", hdr.Filename)}
	}
	if hdr.Size > limit {
		s.metrics.upload(outcomeRejected)
		return &pageError{status: http.StatusRequestEntityTooLarge, err: fmt.Errorf("file exceeds the %d MB upload limit", s.opt.MaxUploadMB)}
	}

	res, err := plm.Process(file, hdr.Size, hdr.Filename)
	s.metrics.observe(time.Since(start))
	if err != nil {
		s.metrics.upload(outcomeLoadFailure)
		log.Warn("upload rejected", zap.String("file", hdr.Filename), zap.Int64("size", hdr.Size), zap.Error(err))
		return err
	}
	s.metrics.upload(outcomeSuccess)
	s.metrics.classified(res.Summary)
	log.Info("upload processed",
		zap.String("file", hdr.Filename),
		zap.String("result_id", res.ID),
		zap.Int("rows", res.Summary.Total),
		zap.Int("voc", res.Summary.Sizes[plm.VOC]),
		zap.Int("mr", res.Summary.Sizes[plm.MR]),
		zap.Int("others", res.Summary.Sizes[plm.Others]),
		zap.Int("overlap", res.Summary.Overlap))

	p := s.newPage("")
	p.Result = res
	s.render(w, r, http.StatusOK, p)
	return nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}
