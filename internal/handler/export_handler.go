package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/dto"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

type exportStore interface {
	Store(file *dto.ExportFile) (*dto.ExportLink, error)
}

type exportDownloader interface {
	Download(token string) (*dto.ExportFile, error)
}

// ExportHandler serves stored exports behind signed tokens.
type ExportHandler struct {
	service exportDownloader
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportDownloader) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Download godoc
// @Summary Download a stored export
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}

// deliver streams file, or stores it and answers with a signed link when delivery is "link".
func deliver(c *gin.Context, store exportStore, file *dto.ExportFile, delivery string) {
	switch strings.ToLower(strings.TrimSpace(delivery)) {
	case "", dto.DeliveryInline:
		response.File(c, file.Filename, file.ContentType, file.Data)
	case dto.DeliveryLink:
		link, err := store.Store(file)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "", response.Payload{"export": link}, meta(c))
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "Delivery must be inline or link"))
	}
}
