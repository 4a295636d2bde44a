package update_app

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/apps/models"
)

type AppService interface {
	Update(ctx context.Context, req *models.UpdateAppRequest) (*models.AppResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
