package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/service/servicetest"
)

func TestComputeStats(t *testing.T) {
	g1 := models.Group{ID: primitive.NewObjectID(), Name: "Parada A"}
	g2 := models.Group{ID: primitive.NewObjectID(), Name: "Parada B"}
	tasks := []models.Task{
		{GroupID: g1.ID.Hex(), Status: models.TaskStatusDone, Shift: models.ShiftA},
		{GroupID: g1.ID.Hex(), Status: models.TaskStatusDone, Shift: models.ShiftB},
		{GroupID: g1.ID.Hex(), Status: models.TaskStatusNotDone, Shift: models.ShiftB, Reason: "chuva"},
		{GroupID: g2.ID.Hex(), Status: models.TaskStatusPending},
		{GroupID: "orphan", Status: models.TaskStatusInProgress, Shift: models.ShiftD},
		{GroupID: g2.ID.Hex(), Status: models.TaskStatusPending},
	}

	stats := service.ComputeStats(tasks, []models.Group{g1, g2})

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 2, stats.Done)
	assert.Equal(t, 1, stats.NotDone)
	assert.Equal(t, 33, stats.CompletionRate)

	require.Len(t, stats.StatusDistribution, 4)
	assert.Equal(t, models.ChartDataItem{Name: "Pendente", Value: 2}, stats.StatusDistribution[0])
	require.Len(t, stats.ShiftDistribution, 4)
	assert.Equal(t, models.ChartDataItem{Name: "Turno B", Value: 2}, stats.ShiftDistribution[1])
	assert.Equal(t, 0, stats.ShiftDistribution[2].Value)

	require.Len(t, stats.Groups, 2)
	assert.Equal(t, "Parada A", stats.Groups[0].GroupName)
	assert.Equal(t, 3, stats.Groups[0].Total)
	assert.Equal(t, 67, stats.Groups[0].CompletionRate)
	assert.Equal(t, 0, stats.Groups[1].CompletionRate)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := service.ComputeStats(nil, nil)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionRate)
	assert.Empty(t, stats.Groups)
}

func TestDashboardStats(t *testing.T) {
	store := servicetest.NewMemStore()
	group := store.AddGroup("Parada")
	seedTask(store, group.ID.Hex(), "1")

	stats, err := service.NewStatsService(store, store).DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Groups[0].Total)
}

func reportTasks() []models.Task {
	return []models.Task{
		{
			OMNumber:       "123",
			Description:    "Trocar filtro",
			WorkCenter:     "MEC",
			Status:         models.TaskStatusNotDone,
			Shift:          models.ShiftB,
			Reason:         "Falta de peça",
			MinDate:        "01/05/2024",
			MaxDate:        "03/05/2024",
			UpdatedByEmail: "ana@ompro.com.br",
			UpdatedAt:      time.Date(2024, time.May, 2, 14, 30, 0, 0, time.UTC).UnixMilli(),
		},
		{OMNumber: "124", Description: "Inspeção", WorkCenter: "ELE", Status: models.TaskStatusPending},
	}
}

func TestReportRows(t *testing.T) {
	rows := service.ReportRows(reportTasks(), time.UTC)

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(service.ReportHeaders))
	assert.Equal(t, "02/05/2024 14:30:00", rows[0][9])
	assert.Equal(t, "N/A", rows[1][4])
	assert.Equal(t, "", rows[1][9])
}

func TestWriteTasksXLSX(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, service.WriteTasksXLSX(buf, reportTasks(), time.UTC))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(service.ReportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, service.ReportHeaders, rows[0])
	assert.Equal(t, "123", rows[1][0])
	assert.Equal(t, "Falta de peça", rows[1][5])
}

func TestWriteTasksPDF(t *testing.T) {
	var tasks []models.Task
	for i := 0; i < 80; i++ {
		tasks = append(tasks, reportTasks()...)
	}

	buf := new(bytes.Buffer)
	require.NoError(t, service.WriteTasksPDF(buf, "Relatório de tarefas", tasks, time.UTC))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestSheetValues(t *testing.T) {
	values := service.SheetValues(reportTasks(), time.UTC)

	require.Len(t, values, 3)
	assert.Equal(t, "Nº OM", values[0][0])
	assert.Equal(t, "Trocar filtro", values[1][1])
}

func TestReportFileName(t *testing.T) {
	name := service.ReportFileName(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), "pdf")
	assert.Equal(t, "Relatorio_OmPro_2024-05-01.pdf", name)
}
