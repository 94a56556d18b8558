package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
	reportTitle     = "Relatório de Tarefas OmPro"
)

// reportTasks tasks matching the groupId, status, shift and search query
func (h *Handler) reportTasks(c *gin.Context) ([]models.Task, bool) {
	var q models.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid query: "+err.Error()))
		return nil, false
	}
	tasks, err := h.Tasks.ListTasks(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return tasks, true
}

// ReportTasks filtered task list for the reports screen
func (h *Handler) ReportTasks(c *gin.Context) {
	tasks, ok := h.reportTasks(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, gin.H{"tasks": tasks, "total": len(tasks)}, "")
}

// ExportXLSX downloads the filtered task list as a workbook
func (h *Handler) ExportXLSX(c *gin.Context) {
	tasks, ok := h.reportTasks(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := service.WriteTasksXLSX(&buf, tasks, h.location()); err != nil {
		utils.HandleError(c, err)
		return
	}
	h.attachment(c, "xlsx", xlsxContentType, buf.Bytes())
}

// ExportPDF downloads the filtered task list as a PDF table
func (h *Handler) ExportPDF(c *gin.Context) {
	tasks, ok := h.reportTasks(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := service.WriteTasksPDF(&buf, reportTitle, tasks, h.location()); err != nil {
		utils.HandleError(c, err)
		return
	}
	h.attachment(c, "pdf", pdfContentType, buf.Bytes())
}

// ExportSheets publishes the filtered task list to the configured Google Sheet
func (h *Handler) ExportSheets(c *gin.Context) {
	if h.Publisher == nil {
		respondError(c, service.ErrExportDisabled)
		return
	}
	tasks, ok := h.reportTasks(c)
	if !ok {
		return
	}
	rows, err := h.Publisher.Publish(c.Request.Context(), tasks)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"rows": rows}, "report published")
}

func (h *Handler) attachment(c *gin.Context, ext, contentType string, data []byte) {
	name := service.ReportFileName(h.now().In(h.location()), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}
