package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// DefaultImportBatchSize rows committed per atomic batch
const DefaultImportBatchSize = 400

// ImportRequest one spreadsheet upload into a group
type ImportRequest struct {
	GroupID string
	Sheet   *Sheet
	// Mapping is the user confirmed mapping; nil means automatic detection.
	Mapping map[models.TaskField]string
	Actor   Actor
}

// TaskImporter turns spreadsheet rows into tasks and writes them in batches
type TaskImporter struct {
	tasks     TaskStore
	groups    GroupStore
	specs     []FieldSpec
	batchSize int
	now       func() time.Time
}

// NewTaskImporter creates an importer; batchSize is clamped to 1..500
func NewTaskImporter(tasks TaskStore, groups GroupStore, batchSize int) *TaskImporter {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	if batchSize > 500 {
		batchSize = 500
	}
	return &TaskImporter{
		tasks:     tasks,
		groups:    groups,
		specs:     DefaultFieldSpecs,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Preview reports the headers of sheet and the automatic mapping
func (im *TaskImporter) Preview(fileName string, sheet *Sheet) (*models.ImportPreview, error) {
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil, ErrEmptySpreadsheet
	}
	return &models.ImportPreview{
		FileName:         fileName,
		Headers:          sheet.Headers,
		RowCount:         len(sheet.Rows),
		SuggestedMapping: ResolveColumns(sheet.Headers, im.specs),
		RequiredFields:   RequiredFields(im.specs),
	}, nil
}

// Import writes one task per row of req.Sheet into req.GroupID.
//
// Every chunk of batchSize rows is committed atomically. When a chunk fails
// the chunks before it stay committed and a *PartialImportError is returned.
func (im *TaskImporter) Import(ctx context.Context, req ImportRequest) (*models.ImportResult, error) {
	if req.Sheet == nil || len(req.Sheet.Rows) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if _, err := im.groups.FindGroup(ctx, groupID); err != nil {
		return nil, err
	}

	mapping := ResolveColumns(req.Sheet.Headers, im.specs)
	if req.Mapping != nil {
		mapping, err = ApplyManualMapping(req.Sheet.Headers, req.Mapping, im.specs)
		if err != nil {
			return nil, err
		}
	}

	importID := uuid.NewString()
	tasks := BuildTasks(req.Sheet.Rows, mapping, im.specs, req.GroupID, importID, req.Actor, im.now())

	result := &models.ImportResult{
		ImportID:  importID,
		GroupID:   req.GroupID,
		TotalRows: len(tasks),
		Mapping:   mapping,
	}

	log := utils.Logger.With().
		Str("importId", importID).
		Str("groupId", req.GroupID).
		Str("user", req.Actor.Email).
		Logger()
	log.Info().Int("rows", len(tasks)).Int("batchSize", im.batchSize).Interface("mapping", mapping).Msg("import started")

	for start := 0; start < len(tasks); start += im.batchSize {
		end := min(start+im.batchSize, len(tasks))
		if err := im.tasks.InsertTaskBatch(ctx, tasks[start:end]); err != nil {
			log.Error().Err(err).Int("committed", result.Imported).Int("batch", result.Batches+1).Msg("import batch failed")
			return result, &PartialImportError{
				ImportID:  importID,
				Committed: result.Imported,
				Batches:   result.Batches,
				Err:       err,
			}
		}
		result.Imported += end - start
		result.Batches++
		log.Debug().Int("batch", result.Batches).Int("committed", result.Imported).Msg("import batch committed")
	}

	log.Info().Int("imported", result.Imported).Int("batches", result.Batches).Msg("import finished")
	return result, nil
}

// BuildTasks converts rows into Pending tasks; unmapped fields get their fallback
func BuildTasks(rows []Row, mapping ColumnMapping, specs []FieldSpec, groupID, importID string, actor Actor, now time.Time) []models.Task {
	fallbacks := make(map[models.TaskField]string, len(specs))
	for _, spec := range specs {
		fallbacks[spec.Field] = spec.Fallback
	}
	value := func(row Row, field models.TaskField) string {
		header, ok := mapping[field]
		if !ok {
			return fallbacks[field]
		}
		return FormatCellValue(row[header])
	}

	stamp := now.UnixMilli()
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		excelData := make(map[string]interface{}, len(row))
		for k, v := range row {
			excelData[k] = v
		}
		tasks = append(tasks, models.Task{
			ID:             primitive.NewObjectID(),
			GroupID:        groupID,
			ImportID:       importID,
			OMNumber:       value(row, models.FieldOMNumber),
			Description:    value(row, models.FieldDescription),
			WorkCenter:     value(row, models.FieldWorkCenter),
			Circuit:        value(row, models.FieldCircuit),
			MinDate:        value(row, models.FieldMinDate),
			MaxDate:        value(row, models.FieldMaxDate),
			Status:         models.TaskStatusPending,
			ExcelData:      excelData,
			UpdatedAt:      stamp,
			UpdatedBy:      actor.ID,
			UpdatedByEmail: actor.Email,
		})
	}
	return tasks
}

// IsPartialImport reports whether err is a partial import failure
func IsPartialImport(err error) (*PartialImportError, bool) {
	var partial *PartialImportError
	if errors.As(err, &partial) {
		return partial, true
	}
	return nil, false
}
