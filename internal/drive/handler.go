package drive

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	folderID string
}

// NewHandler serves listings of the input folder. folderID is used when the
// request names neither a folder id nor a path.
func NewHandler(service *Service, folderID string) *Handler {
	return &Handler{service: service, folderID: folderID}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/drive/files", h.ListFiles)
}

// ListFiles returns the spreadsheets of a folder, chosen by folderId, then
// path, then the configured folder.
func (h *Handler) ListFiles(c *gin.Context) {
	ctx := c.Request.Context()
	folderID := c.Query("folderId")

	if folderPath := c.Query("path"); folderID == "" && folderPath != "" {
		id, err := h.service.FindFolderByPath(ctx, folderPath)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		folderID = id
	}
	if folderID == "" {
		folderID = h.folderID
	}

	files, err := h.service.ListFiles(ctx, folderID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, spreadsheets(files))
}
