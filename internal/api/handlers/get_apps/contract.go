package get_apps

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/apps/models"
)

type AppService interface {
	List(ctx context.Context, tenantID int64) (*models.AppListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
