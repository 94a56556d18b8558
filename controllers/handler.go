package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

// DatabaseStatus reports per collection document counts
type DatabaseStatus interface {
	GetDatabaseStatus(ctx context.Context) (map[string]interface{}, error)
}

// Handler HTTP handlers of the task tracker
type Handler struct {
	Users    *service.UserService
	Tasks    *service.TaskService
	Groups   *service.GroupService
	Stats    *service.StatsService
	Importer *service.TaskImporter
	Hub      *service.SyncHub
	// Publisher is nil when Google Sheets export is not configured.
	Publisher service.ReportPublisher
	DB        DatabaseStatus

	Location       *time.Location
	MaxUploadBytes int64
	Now            func() time.Time
}

func (h *Handler) location() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// actor returns the authenticated caller, answering 401 when absent
func actor(c *gin.Context) (service.Actor, bool) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return service.Actor{}, false
	}
	return service.Actor{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, true
}

// respondError translates service errors into API errors
func respondError(c *gin.Context, err error) {
	utils.HandleError(c, toApiError(err))
}

func toApiError(err error) error {
	var apiErr *utils.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if partial, ok := service.IsPartialImport(err); ok {
		return utils.NewApiError(partial.Error(), http.StatusInternalServerError, "PARTIAL_IMPORT").
			WithDetails(gin.H{
				"importId":  partial.ImportID,
				"committed": partial.Committed,
				"batches":   partial.Batches,
			})
	}

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrMappingIncomplete):
		return utils.CreateValidationError(err.Error())
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrUnsupportedFormat):
		return utils.CreateBadRequestError(err.Error())
	case errors.Is(err, service.ErrInvalidLogin):
		return utils.NewApiError(err.Error(), http.StatusUnauthorized, "INVALID_CREDENTIALS")
	case errors.Is(err, service.ErrSelfDeletion):
		return utils.NewApiError(err.Error(), http.StatusForbidden, "SELF_DELETION")
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.CreateNotFoundError("task")
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.CreateNotFoundError("group")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.CreateNotFoundError("user")
	case errors.Is(err, service.ErrEmailTaken):
		return utils.NewApiError(err.Error(), http.StatusConflict, "EMAIL_TAKEN")
	case errors.Is(err, service.ErrEmptySpreadsheet):
		return utils.NewApiError(err.Error(), http.StatusUnprocessableEntity, "EMPTY_SPREADSHEET")
	case errors.Is(err, service.ErrExportDisabled):
		return utils.NewApiError(err.Error(), http.StatusServiceUnavailable, "EXPORT_DISABLED")
	}
	return err
}
