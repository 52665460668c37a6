package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/techlog-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Log Page PDF
// @Description Download a log page with its entries, checks and de-icing authorization
// @Tags Reports
// @Produce application/pdf
// @Param log_id path int true "Log ID"
// @Success 200 {file} file "techlog_page.pdf"
// @Security BearerAuth
// @Router /logs/{log_id}/report [get]
func (h *ReportHandler) LogPagePDF(c *gin.Context) {
	logID, err := strconv.ParseUint(c.Param("log_id"), 10, 32)
	if err != nil || logID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log id"})
		return
	}

	data, filename, err := h.reportService.LogPagePDF(c.Request.Context(), uint(logID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary Deferral Register XLSX
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "open, entered, cleared or outstanding"
// @Param category query string false "A, B, C, D or U"
// @Success 200 {file} file "deferrals.xlsx"
// @Security BearerAuth
// @Router /deferrals/export [get]
func (h *ReportHandler) DeferralsXLSX(c *gin.Context) {
	data, filename, err := h.reportService.DeferralsXLSX(c.Request.Context(), deferralQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Signature Image
// @Description Download a signature image referenced by an authorization
// @Tags Reports
// @Produce image/png
// @Param path path string true "Signature path"
// @Success 200 {file} file "signature"
// @Security BearerAuth
// @Router /signatures/{path} [get]
func (h *ReportHandler) Signature(c *gin.Context) {
	f, err := h.reportService.Signature(c.Request.Context(), "signatures"+c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := "image/png"
	if ext := filepath.Ext(info.Name()); ext == ".jpg" {
		contentType = "image/jpeg"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, nil)
}
