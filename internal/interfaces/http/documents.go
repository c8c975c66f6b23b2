package http

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/email"
)

// Document sinks accepted by POST /drafts/:id/document?sink=
const (
	SinkPDF        = "pdf"
	SinkPreview    = "preview"
	SinkDownload   = "download"
	SinkAttachment = "attachment"
)

// FileResponse describes a document written to disk
type FileResponse struct {
	FileName string `json:"fileName"`
	Path     string `json:"path"`
}

// AttachmentResponse carries a document as an email attachment payload
type AttachmentResponse struct {
	FileName  string `json:"fileName"`
	PDFBase64 string `json:"pdfBase64"`
	QRPayload string `json:"qrPayload,omitempty"`
}

// ComposeDocument handles POST /api/v1/drafts/:id/document
func (h *Handlers) ComposeDocument(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	sink := c.DefaultQuery("sink", SinkPDF)
	switch sink {
	case SinkPDF, SinkPreview, SinkDownload, SinkAttachment:
	default:
		h.writeError(c, port.NewValidationError("sink", fmt.Sprintf("unknown sink %q", sink)), nil)
		return
	}

	bill := s.Snapshot()
	doc, err := h.deps.Documents.Compose(c.Request.Context(), bill)
	if err != nil {
		h.writeError(c, err, draftResponse(s))
		return
	}

	switch sink {
	case SinkPreview:
		png, err := h.deps.Documents.Preview(doc)
		if err != nil {
			h.writeError(c, err, draftResponse(s))
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	case SinkDownload:
		path, err := h.deps.Documents.Download(doc)
		if err != nil {
			h.writeError(c, err, draftResponse(s))
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: FileResponse{FileName: doc.FileName, Path: path}})
	case SinkAttachment:
		c.JSON(http.StatusOK, Response{Success: true, Data: AttachmentResponse{
			FileName:  doc.FileName,
			PDFBase64: doc.Attachment(),
			QRPayload: doc.QRPayload,
		}})
	default:
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.FileName))
		c.Data(http.StatusOK, "application/pdf", doc.Content)
	}
}

// ExportWorkbook handles POST /api/v1/drafts/:id/workbook
func (h *Handlers) ExportWorkbook(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	path, err := h.deps.Documents.SaveWorkbook(s.Snapshot())
	if err != nil {
		h.writeError(c, err, draftResponse(s))
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: FileResponse{FileName: filepath.Base(path), Path: path}})
}

// SendEmail handles POST /api/v1/drafts/:id/email. Sending does not require
// the bill to be saved.
func (h *Handlers) SendEmail(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var msg email.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		h.writeError(c, port.NewValidationError("body", "invalid request body"), draftResponse(s))
		return
	}

	ctx := c.Request.Context()
	bill := s.Snapshot()
	doc, err := h.deps.Documents.Compose(ctx, bill)
	if err != nil {
		h.writeError(c, err, draftResponse(s))
		return
	}

	if err := h.deps.Mailer.Send(ctx, doc, bill, msg); err != nil {
		h.writeError(c, err, draftResponse(s))
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"fileName": doc.FileName}})
}
