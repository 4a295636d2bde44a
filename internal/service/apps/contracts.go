package apps

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/connectedapp"
)

// AppRepository интерфейс репозитория подключенных приложений
type AppRepository interface {
	Create(ctx context.Context, app *domain.ConnectedApp) (*domain.ConnectedApp, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.ConnectedApp, error)
	GetByTenant(ctx context.Context, tenantID int64) ([]*domain.ConnectedApp, error)
	GetByTenantAndType(ctx context.Context, tenantID int64, appType string) ([]*domain.ConnectedApp, error)
	Update(ctx context.Context, tenantID, id int64, patch appRepo.UpdatePatch) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
