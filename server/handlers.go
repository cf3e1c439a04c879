package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/javajack/xlbind"
	"github.com/javajack/xlbind/store"
)

// Version is reported by the health check.
var Version = "dev"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Response represents a standard JSON response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ImportResponse is a converted workbook and its per-cell degradations.
type ImportResponse struct {
	Workbook *xlbind.Workbook         `json:"data"`
	Issues   []xlbind.ConversionIssue `json:"issues"`
}

// DocumentResponse describes a live document.
type DocumentResponse struct {
	ID          string                   `json:"id"`
	ActiveSheet string                   `json:"activeSheet"`
	Workbook    *xlbind.Workbook         `json:"data"`
	Records     []xlbind.RestoreRecord   `json:"records"`
	Issues      []xlbind.ConversionIssue `json:"issues,omitempty"`
	Dropped     int                      `json:"dropped,omitempty"`
}

// DocumentSource names where a document's workbook comes from. With neither
// field set the document starts blank.
type DocumentSource struct {
	TemplateID int64            `json:"templateId"`
	Workbook   *xlbind.Workbook `json:"data"`
}

// SetCellRequest is a human edit.
type SetCellRequest struct {
	Value any `json:"value"`
}

// ReconcileRequest projects a record through an inline binding table, or
// through a stored profile when Bindings is absent.
type ReconcileRequest struct {
	Record   any                   `json:"record"`
	Bindings []xlbind.FieldBinding `json:"bindings"`
	Profile  string                `json:"profile"`
}

// ReconcileResponse reports one reconciliation pass.
type ReconcileResponse struct {
	Result  xlbind.ReconcileResult `json:"result"`
	Records []xlbind.RestoreRecord `json:"records"`
}

// BindingsResponse carries a binding table and any warnings about it.
type BindingsResponse struct {
	Profile  string                   `json:"profile,omitempty"`
	Bindings []xlbind.FieldBinding    `json:"bindings"`
	Issues   []xlbind.ValidationIssue `json:"issues,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
		},
	})
}

// convertImport handles POST /api/v1/convert/import
func (s *Server) convertImport(c *gin.Context) {
	data, err := s.upload(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.worker.Import(c.Request.Context(), sessionKey(c), bytes.NewReader(data))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: ImportResponse{Workbook: res.Workbook, Issues: issuesOrEmpty(res.Issues)}})
}

// convertExport handles POST /api/v1/convert/export
func (s *Server) convertExport(c *gin.Context) {
	var book xlbind.Workbook
	if err := c.ShouldBindJSON(&book); err != nil {
		s.badRequest(c, "invalid snapshot", err)
		return
	}
	data, err := s.worker.Export(c.Request.Context(), sessionKey(c), &book)
	if err != nil {
		s.fail(c, err)
		return
	}
	sendWorkbook(c, book.Name, data)
}

func (s *Server) listTemplates(c *gin.Context) {
	templates, err := s.templates.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: templates})
}

func (s *Server) createTemplate(c *gin.Context) {
	var t store.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		s.badRequest(c, "invalid template", err)
		return
	}
	if err := s.templates.Create(c.Request.Context(), &t); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: t})
}

func (s *Server) getTemplate(c *gin.Context) {
	id, ok := s.templateID(c)
	if !ok {
		return
	}
	t, err := s.templates.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: t})
}

func (s *Server) deleteTemplate(c *gin.Context) {
	id, ok := s.templateID(c)
	if !ok {
		return
	}
	if err := s.templates.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listProfiles(c *gin.Context) {
	profiles, err := s.bindings.Profiles(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: profiles})
}

func (s *Server) validateBindings(c *gin.Context) {
	var bindings []xlbind.FieldBinding
	if err := c.ShouldBindJSON(&bindings); err != nil {
		s.badRequest(c, "invalid bindings", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: BindingsResponse{
		Bindings: bindings,
		Issues:   xlbind.ValidateBindings(bindings),
	}})
}

func (s *Server) getBindings(c *gin.Context) {
	profile := c.Param("profile")
	bindings, err := s.bindings.Load(c.Request.Context(), profile)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: BindingsResponse{Profile: profile, Bindings: bindings}})
}

func (s *Server) putBindings(c *gin.Context) {
	profile := c.Param("profile")
	var bindings []xlbind.FieldBinding
	if err := c.ShouldBindJSON(&bindings); err != nil {
		s.badRequest(c, "invalid bindings", err)
		return
	}

	issues := xlbind.ValidateBindings(bindings)
	if xlbind.HasErrors(issues) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Data:    BindingsResponse{Profile: profile, Bindings: bindings, Issues: issues},
			Error:   "binding table has errors",
		})
		return
	}

	saved, err := s.bindings.Save(c.Request.Context(), profile, bindings)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: BindingsResponse{Profile: profile, Bindings: saved, Issues: issues}})
}

// createDocument handles POST /api/v1/documents. A JSON body selects a
// template or carries a snapshot; any other body is read as an xlsx upload.
func (s *Server) createDocument(c *gin.Context) {
	book, issues, err := s.sourceWorkbook(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	d := xlbind.NewDocument(book, s.opts...)
	s.documents.add(d)
	s.logger.Info("Document created", zap.String("document", d.ID()))

	resp := describeDocument(d)
	resp.Issues = issues
	c.JSON(http.StatusCreated, Response{Success: true, Data: resp})
}

func (s *Server) getDocument(c *gin.Context) {
	d, err := s.documents.get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: describeDocument(d)})
}

func (s *Server) deleteDocument(c *gin.Context) {
	if !s.documents.remove(c.Param("id")) {
		s.fail(c, fmt.Errorf("document %q: %w", c.Param("id"), store.ErrNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}

// loadDocument handles POST /api/v1/documents/:id/load, swapping the whole
// workbook of a live document.
func (s *Server) loadDocument(c *gin.Context) {
	d, err := s.documents.get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	book, issues, err := s.sourceWorkbook(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	dropped := d.Load(book)

	resp := describeDocument(d)
	resp.Issues = issues
	resp.Dropped = dropped
	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

func (s *Server) setActiveSheet(c *gin.Context) {
	d, err := s.documents.get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req struct {
		SheetID string `json:"sheetId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request", err)
		return
	}
	if err := d.SetActiveSheet(req.SheetID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"activeSheet": req.SheetID}})
}

// setCell handles PUT /api/v1/documents/:id/cells/:sheet/:addr
func (s *Server) setCell(c *gin.Context) {
	d, err := s.documents.get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req SetCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request", err)
		return
	}
	if err := d.SetCell(c.Param("sheet"), c.Param("addr"), req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// reconcile handles POST /api/v1/documents/:id/reconcile
func (s *Server) reconcile(c *gin.Context) {
	d, err := s.documents.get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request", err)
		return
	}

	bindings := req.Bindings
	if bindings == nil {
		profile := req.Profile
		if profile == "" {
			profile = store.DefaultProfile
		}
		if bindings, err = s.bindings.Load(c.Request.Context(), profile); err != nil {
			s.fail(c, err)
			return
		}
	}

	res, err := d.Reconcile(req.Record, bindings)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: ReconcileResponse{Result: res, Records: d.Records()}})
}

// exportDocument handles GET /api/v1/documents/:id/export
func (s *Server) exportDocument(c *gin.Context) {
	d, err := s.documents.get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	book := d.Snapshot()
	data, err := s.worker.Export(c.Request.Context(), d.ID(), book)
	if err != nil {
		s.fail(c, err)
		return
	}
	sendWorkbook(c, book.Name, data)
}

// sourceWorkbook reads the workbook a document should hold.
func (s *Server) sourceWorkbook(c *gin.Context) (*xlbind.Workbook, []xlbind.ConversionIssue, error) {
	if c.ContentType() != gin.MIMEJSON && c.Request.ContentLength != 0 {
		data, err := s.upload(c)
		if err != nil {
			return nil, nil, err
		}
		res, err := s.worker.Import(c.Request.Context(), sessionKey(c), bytes.NewReader(data))
		if err != nil {
			return nil, nil, err
		}
		return res.Workbook, res.Issues, nil
	}

	var src DocumentSource
	if err := c.ShouldBindJSON(&src); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	switch {
	case src.TemplateID != 0:
		t, err := s.templates.Get(c.Request.Context(), src.TemplateID)
		if err != nil {
			return nil, nil, err
		}
		return t.Workbook, nil, nil
	case src.Workbook != nil:
		return src.Workbook, nil, nil
	}
	return nil, nil, nil
}

// upload reads the whole workbook upload, a multipart "file" field or the raw
// body, capped at MaxUpload. The request body is not used after it returns.
func (s *Server) upload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUpload)
	var body io.ReadCloser = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if body, err = fh.Open(); err != nil {
			return nil, err
		}
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func (s *Server) templateID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.badRequest(c, "invalid template id", err)
		return 0, false
	}
	return id, true
}

var errBadRequest = errors.New("bad request")

func (s *Server) badRequest(c *gin.Context, msg string, err error) {
	s.fail(c, fmt.Errorf("%w: %s: %v", errBadRequest, msg, err))
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound), errors.Is(err, xlbind.ErrSheetNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, xlbind.ErrInvalidAddress),
		errors.Is(err, xlbind.ErrImportUnreadable),
		errors.Is(err, store.ErrInvalidTemplate):
		return http.StatusBadRequest
	case errors.Is(err, xlbind.ErrCellClaimed), errors.Is(err, xlbind.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func describeDocument(d *xlbind.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID(),
		ActiveSheet: d.ActiveSheet(),
		Workbook:    d.Snapshot(),
		Records:     d.Records(),
	}
}

func sendWorkbook(c *gin.Context, name string, data []byte) {
	if name == "" {
		name = "workbook"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// sessionKey picks the worker slot; a newer request on the same slot
// supersedes an older one.
func sessionKey(c *gin.Context) string {
	if id := c.GetHeader("X-Session-ID"); id != "" {
		return "session:" + id
	}
	return "client:" + c.ClientIP()
}

func issuesOrEmpty(issues []xlbind.ConversionIssue) []xlbind.ConversionIssue {
	if issues == nil {
		return []xlbind.ConversionIssue{}
	}
	return issues
}
