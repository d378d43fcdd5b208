package web

import (
	"io"
	"mime"
	"net/http"

	"finview/internal/core"
	"finview/internal/log"
)

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := s.maint.Reset(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Reset failed",
			log.FieldOperation, log.OpReset, log.FieldError, err)
		s.fail(w, r, err, "/")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Reset completed", log.FieldOperation, log.OpReset)
	// Write an empty snapshot rather than invalidating so the dashboard
	// renders zeroed totals without another upstream fetch.
	s.snapshot.Set(snapshotKey, []core.Transaction{})
	s.notices.SetSuccess(detail)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	dl, err := s.maint.Export(ctx, format)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldExportFormat, format,
			log.FieldError, err)
		s.fail(w, r, err, "/")
		return
	}
	defer dl.Body.Close()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	// The filename comes verbatim from the upstream header, so it must be
	// quoted as a proper media-type parameter.
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))

	if _, err := io.Copy(w, dl.Body); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Export stream interrupted",
			log.FieldOperation, log.OpExport, log.FieldError, err)
	}
}
