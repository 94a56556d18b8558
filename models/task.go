package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus task status enum
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pendente"
	TaskStatusInProgress TaskStatus = "Em andamento"
	TaskStatusDone       TaskStatus = "Executada"
	TaskStatusNotDone    TaskStatus = "Não executada"
)

// TaskStatuses lists every status in display order
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusDone,
	TaskStatusNotDone,
}

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// RequiresReason reports whether moving a task into s needs a reason
func (s TaskStatus) RequiresReason() bool {
	return s == TaskStatusInProgress || s == TaskStatusNotDone
}

// Shift work shift responsible for an update
type Shift string

const (
	ShiftA Shift = "A"
	ShiftB Shift = "B"
	ShiftC Shift = "C"
	ShiftD Shift = "D"
)

// Shifts lists every shift
var Shifts = []Shift{ShiftA, ShiftB, ShiftC, ShiftD}

// Valid reports whether s is one of the four shifts
func (s Shift) Valid() bool {
	switch s {
	case ShiftA, ShiftB, ShiftC, ShiftD:
		return true
	}
	return false
}

// Task a maintenance work order tracked through its status lifecycle
type Task struct {
	ID             primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	GroupID        string                 `json:"groupId" bson:"groupId"`
	ImportID       string                 `json:"importId,omitempty" bson:"importId,omitempty"`
	OMNumber       string                 `json:"omNumber" bson:"omNumber"`
	Description    string                 `json:"description" bson:"description"`
	WorkCenter     string                 `json:"workCenter" bson:"workCenter"`
	Circuit        string                 `json:"circuit,omitempty" bson:"circuit,omitempty"`
	MinDate        string                 `json:"minDate" bson:"minDate"`
	MaxDate        string                 `json:"maxDate" bson:"maxDate"`
	Status         TaskStatus             `json:"status" bson:"status"`
	Shift          Shift                  `json:"shift,omitempty" bson:"shift,omitempty"`
	Reason         string                 `json:"reason,omitempty" bson:"reason,omitempty"`
	ExcelData      map[string]interface{} `json:"excelData" bson:"excelData"`
	History        []HistoryEntry         `json:"history,omitempty" bson:"history,omitempty"`
	UpdatedAt      int64                  `json:"updatedAt" bson:"updatedAt"`
	UpdatedBy      string                 `json:"updatedBy" bson:"updatedBy"`
	UpdatedByEmail string                 `json:"updatedByEmail" bson:"updatedByEmail"`
}

// HistoryEntry one immutable status change record
type HistoryEntry struct {
	Timestamp int64      `json:"timestamp" bson:"timestamp"`
	Status    TaskStatus `json:"status" bson:"status"`
	Shift     Shift      `json:"shift,omitempty" bson:"shift,omitempty"`
	Reason    string     `json:"reason,omitempty" bson:"reason,omitempty"`
	User      string     `json:"user" bson:"user"`
}

// TaskQuery client side filter applied to task lists
type TaskQuery struct {
	GroupID string     `form:"groupId"`
	Search  string     `form:"search"`
	Status  TaskStatus `form:"status"`
	Shift   Shift      `form:"shift"`
}

// StatusUpdateRequest status update payload
type StatusUpdateRequest struct {
	Status TaskStatus `json:"status" binding:"required"`
	Shift  Shift      `json:"shift"`
	Reason string     `json:"reason"`
}

// StatusUpdate validated status change written to the store
type StatusUpdate struct {
	Status         TaskStatus
	Shift          Shift
	Reason         string
	UpdatedAt      int64
	UpdatedBy      string
	UpdatedByEmail string
}

// HistoryEntry builds the history record for this update
func (u StatusUpdate) HistoryEntry() HistoryEntry {
	return HistoryEntry{
		Timestamp: u.UpdatedAt,
		Status:    u.Status,
		Shift:     u.Shift,
		Reason:    u.Reason,
		User:      u.UpdatedByEmail,
	}
}
