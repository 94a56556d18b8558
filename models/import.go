package models

// TaskField semantic task field a spreadsheet column can map to
type TaskField string

const (
	FieldOMNumber    TaskField = "omNumber"
	FieldDescription TaskField = "description"
	FieldWorkCenter  TaskField = "workCenter"
	FieldCircuit     TaskField = "circuit"
	FieldMinDate     TaskField = "minDate"
	FieldMaxDate     TaskField = "maxDate"
)

// ImportPreview headers found in an upload and the suggested mapping
type ImportPreview struct {
	FileName         string               `json:"fileName"`
	Headers          []string             `json:"headers"`
	RowCount         int                  `json:"rowCount"`
	SuggestedMapping map[TaskField]string `json:"suggestedMapping"`
	RequiredFields   []TaskField          `json:"requiredFields"`
}

// ImportResult outcome of one import run
type ImportResult struct {
	ImportID  string               `json:"importId"`
	GroupID   string               `json:"groupId"`
	TotalRows int                  `json:"totalRows"`
	Imported  int                  `json:"imported"`
	Batches   int                  `json:"batches"`
	Mapping   map[TaskField]string `json:"mapping"`
}
