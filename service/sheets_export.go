package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// ReportPublisher pushes a task report to an external spreadsheet
type ReportPublisher interface {
	Publish(ctx context.Context, tasks []models.Task) (int, error)
}

// SheetsExporter replaces the content of one Google Sheets tab with a task report
type SheetsExporter struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
}

// NewSheetsService builds a Sheets client from a service-account credentials file
func NewSheetsService(ctx context.Context, credentialsFile string) (*sheets.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}
	return srv, nil
}

// NewSheetsExporter creates an exporter writing into sheetName of spreadsheetID
func NewSheetsExporter(srv *sheets.Service, spreadsheetID, sheetName string, loc *time.Location) *SheetsExporter {
	if sheetName == "" {
		sheetName = ReportSheetName
	}
	return &SheetsExporter{srv: srv, spreadsheetID: spreadsheetID, sheetName: sheetName, loc: loc}
}

// SheetValues report as a Sheets value range, header first
func SheetValues(tasks []models.Task, loc *time.Location) [][]interface{} {
	values := make([][]interface{}, 0, len(tasks)+1)
	header := make([]interface{}, len(ReportHeaders))
	for i, h := range ReportHeaders {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range ReportRows(tasks, loc) {
		line := make([]interface{}, len(row))
		for i, v := range row {
			line[i] = v
		}
		values = append(values, line)
	}
	return values
}

// Publish clears the tab and writes the report; returns the number of task rows written
func (e *SheetsExporter) Publish(ctx context.Context, tasks []models.Task) (int, error) {
	rangeAll := fmt.Sprintf("'%s'", e.sheetName)

	_, err := e.srv.Spreadsheets.Values.Clear(e.spreadsheetID, rangeAll, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	vr := &sheets.ValueRange{Values: SheetValues(tasks, e.loc)}
	_, err = e.srv.Spreadsheets.Values.Update(e.spreadsheetID, rangeAll+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write sheet %s: %w", e.sheetName, err)
	}

	utils.Logger.Info().Str("spreadsheetId", e.spreadsheetID).Str("sheet", e.sheetName).Int("rows", len(tasks)).Msg("report published to google sheets")
	return len(tasks), nil
}
