package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/application/importer"
)

// maxImportSize bounds uploaded billing exports to 20 MiB
const maxImportSize = 20 << 20

// CSVImportHandler serves the billing export upload endpoint
type CSVImportHandler struct {
	BaseHandler
	importer *importer.FeeImportService
}

// NewCSVImportHandler creates a CSV import handler
func NewCSVImportHandler(svc *importer.FeeImportService, logger *zap.Logger) *CSVImportHandler {
	return &CSVImportHandler{
		BaseHandler: NewBaseHandler(logger),
		importer:    svc,
	}
}

// Import handles POST /api/v1/csv/import (multipart form, field "file")
func (h *CSVImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "multipart field 'file' is required")
		return
	}
	if fileHeader.Size > maxImportSize {
		h.badRequest(c, "import file exceeds the 20 MiB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	result, err := h.importer.Import(c.Request.Context(), file)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, result)
}
