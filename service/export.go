package service

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/ompro/ompro_end/models"
)

// ReportSheetName sheet name of exported workbooks
const ReportSheetName = "Relatório"

// ReportHeaders column titles of every task report
var ReportHeaders = []string{
	"Nº OM",
	"Descrição",
	"Centro de Trabalho",
	"Status",
	"Turno",
	"Motivo",
	"Data Min",
	"Data Max",
	"Atualizado por",
	"Data de Atualização",
}

const reportTimestampLayout = "02/01/2006 15:04:05"

// ReportRows flattens tasks into report rows ordered like ReportHeaders
func ReportRows(tasks []models.Task, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		shift := string(t.Shift)
		if shift == "" {
			shift = "N/A"
		}
		updated := ""
		if t.UpdatedAt > 0 {
			updated = time.UnixMilli(t.UpdatedAt).In(loc).Format(reportTimestampLayout)
		}
		rows = append(rows, []string{
			t.OMNumber,
			t.Description,
			t.WorkCenter,
			string(t.Status),
			shift,
			t.Reason,
			t.MinDate,
			t.MaxDate,
			t.UpdatedByEmail,
			updated,
		})
	}
	return rows
}

// ReportFileName dated download name, e.g. Relatorio_OmPro_2024-05-01.xlsx
func ReportFileName(now time.Time, ext string) string {
	return fmt.Sprintf("Relatorio_OmPro_%s.%s", now.Format("2006-01-02"), ext)
}

// WriteTasksXLSX writes the report as a single sheet workbook
func WriteTasksXLSX(w io.Writer, tasks []models.Task, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(ReportHeaders))
	for i, h := range ReportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ReportSheetName, "A1", &header); err != nil {
		return err
	}

	for i, row := range ReportRows(tasks, loc) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(ReportSheetName, cell, &values); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(ReportHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(ReportSheetName, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(ReportSheetName, "A", "J", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(ReportSheetName, "B", "B", 48); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// landscape A4 usable width is 277mm with 10mm margins
var pdfColumnWidths = []float64{20, 62, 22, 24, 12, 38, 19, 19, 35, 26}

// WriteTasksPDF writes the report as a paginated landscape table; the header
// row repeats on every page.
func WriteTasksPDF(w io.Writer, title string, tasks []models.Task, loc *time.Location) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 14)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range ReportHeaders {
			pdf.CellFormat(pdfColumnWidths[i], 7, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 7)
	for _, row := range ReportRows(tasks, loc) {
		for i, v := range row {
			text := fitText(pdf, tr(v), pdfColumnWidths[i]-2)
			pdf.CellFormat(pdfColumnWidths[i], 6, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// fitText cuts s so it fits in width, marking the cut with "...".
// s is already translated to the single byte font encoding.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for n := len(s) - 1; n > 0; n-- {
		candidate := s[:n] + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
