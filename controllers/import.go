package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

// readUpload parses the multipart "file" field into a sheet
func (h *Handler) readUpload(c *gin.Context) (string, *service.Sheet, bool) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			utils.HandleError(c, utils.NewApiError(
				fmt.Sprintf("upload exceeds %d MB", h.MaxUploadBytes>>20),
				http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE"))
			return "", nil, false
		}
		utils.HandleError(c, utils.CreateBadRequestError("a spreadsheet must be sent in the \"file\" field"))
		return "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		utils.HandleError(c, err)
		return "", nil, false
	}
	defer file.Close()

	sheet, err := service.ReadSpreadsheet(header.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			respondError(c, err)
		} else {
			utils.HandleError(c, utils.CreateBadRequestError("could not read spreadsheet: "+err.Error()))
		}
		return "", nil, false
	}

	utils.Logger.Debug().
		Str("file", header.Filename).
		Int64("size", header.Size).
		Strs("headers", sheet.Headers).
		Int("rows", len(sheet.Rows)).
		Msg("spreadsheet parsed")
	return header.Filename, sheet, true
}

// PreviewImport reports the headers of an upload and the automatic column mapping
func (h *Handler) PreviewImport(c *gin.Context) {
	fileName, sheet, ok := h.readUpload(c)
	if !ok {
		return
	}
	preview, err := h.Importer.Preview(fileName, sheet)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, preview, "")
}

// ImportTasks creates one Pending task per spreadsheet row in the group.
// The optional "mapping" form field holds a JSON object field -> header.
func (h *Handler) ImportTasks(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	groupID := c.Param("id")
	if _, err := utils.ParseObjectID(groupID, "group"); err != nil {
		utils.HandleError(c, err)
		return
	}

	fileName, sheet, ok := h.readUpload(c)
	if !ok {
		return
	}

	var mapping map[models.TaskField]string
	if raw := strings.TrimSpace(c.PostForm("mapping")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			utils.HandleError(c, utils.CreateBadRequestError("invalid mapping: "+err.Error()))
			return
		}
	}

	result, err := h.Importer.Import(c.Request.Context(), service.ImportRequest{
		GroupID: groupID,
		Sheet:   sheet,
		Mapping: mapping,
		Actor:   who,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Logger.Info().
		Str("file", fileName).
		Str("groupId", groupID).
		Int("imported", result.Imported).
		Msg("spreadsheet imported")
	utils.SuccessResponse(c, result, fmt.Sprintf("%d tasks imported", result.Imported), http.StatusCreated)
}
