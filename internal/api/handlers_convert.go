package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/invoicesheet/internal/export"
	"github.com/dgallion1/invoicesheet/internal/parser"
	"github.com/dgallion1/invoicesheet/internal/pipeline"
)

// errBadRequest marks form problems that are the client's fault.
var errBadRequest = errors.New("bad request")

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v, err := pipeline.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		v = s.defaultVariant()
	}
	p := newPage(v)
	p.Notice = &notice{Kind: "info", Text: uploadPrompt}
	s.renderPage(w, http.StatusOK, p)
}

func (s *Server) handleConvertPage(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.parseConvertForm(w, r)
	defer cleanup()
	v := req.Variant
	if v == "" {
		v = s.defaultVariant()
	}
	p := newPage(v)

	if err == nil {
		var res *pipeline.Result
		res, err = s.converter.Convert(r.Context(), req)
		if err == nil {
			p.Notice = &notice{Kind: "success", Text: p.Copy.Success}
			p.Result = res
			preview, perr := renderPreview(res.Frame(), s.cfg.PreviewRows)
			if perr != nil {
				s.log.Warn("render preview", "result_id", res.ID, "error", perr)
			}
			p.Preview = preview
			s.renderPage(w, http.StatusOK, p)
			return
		}
	}

	status := http.StatusOK
	switch {
	case errors.Is(err, pipeline.ErrNoFiles):
		p.Notice = &notice{Kind: "info", Text: uploadPrompt}
	case errors.Is(err, pipeline.ErrNoData):
		p.Notice = &notice{Kind: "warning", Text: p.Copy.NoData}
	default:
		status = errorStatus(err)
		p.Notice = &notice{Kind: "error", Text: err.Error()}
	}
	s.renderPage(w, status, p)
}

func (s *Server) handleConvertAPI(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := s.parseConvertForm(w, r)
	defer cleanup()
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	res, err := s.converter.Convert(r.Context(), req)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !errors.Is(err, pipeline.ErrNoData) {
			status = errorStatus(err)
		}
		jsonError(w, err.Error(), status)
		return
	}
	writeWorkbook(w, res)
}

// parseConvertForm reads the multipart form shared by the page and the
// API. The returned cleanup must always be called.
func (s *Server) parseConvertForm(w http.ResponseWriter, r *http.Request) (pipeline.Request, func(), error) {
	noop := func() {}
	var req pipeline.Request

	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*int64(s.cfg.MaxFiles)+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return req, noop, fmt.Errorf("%w (%d bytes)", pipeline.ErrFileTooLarge, mbe.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return req, noop, pipeline.ErrNoFiles
		}
		return req, noop, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	req.Variant = s.defaultVariant()
	if raw := r.FormValue("variant"); raw != "" {
		v, err := pipeline.ParseVariant(raw)
		if err != nil {
			return req, cleanup, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		req.Variant = v
	}
	req.Password = r.FormValue("password")

	files := r.MultipartForm.File["files"]
	if len(files) > s.cfg.MaxFiles {
		return req, cleanup, fmt.Errorf("%w: at most %d files per request", errBadRequest, s.cfg.MaxFiles)
	}
	for _, fh := range files {
		name := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(name) {
			return req, cleanup, fmt.Errorf("%w: unsupported file type: %s", errBadRequest, filepath.Ext(name))
		}
		req.Uploads = append(req.Uploads, pipeline.Upload{
			Name: name,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	if len(req.Uploads) == 0 {
		return req, cleanup, pipeline.ErrNoFiles
	}
	return req, cleanup, nil
}

func (s *Server) defaultVariant() pipeline.Variant {
	v, err := pipeline.ParseVariant(s.cfg.DefaultVariant)
	if err != nil {
		return pipeline.VariantClean
	}
	return v
}

// errorStatus maps a conversion error to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, pipeline.ErrNoFiles):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeWorkbook(w http.ResponseWriter, res *pipeline.Result) {
	data := res.Data()
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Result-Id", res.ID)
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
