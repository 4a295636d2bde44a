package apps

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/connectedapp"
	"github.com/m04kA/SMC-AppointmentService/internal/service/apps/models"
)

// Service сервис реестра подключенных приложений тенанта
type Service struct {
	appRepo AppRepository
	logger  Logger
}

// NewService создает новый экземпляр сервиса приложений
func NewService(appRepo AppRepository, logger Logger) *Service {
	return &Service{
		appRepo: appRepo,
		logger:  logger,
	}
}

// Install устанавливает приложение из каталога.
// Неизвестный тип приложения отклоняется. Новая запись создаётся
// в статусе pending и копирует scope-набор из каталога
func (s *Service) Install(ctx context.Context, req *models.InstallAppRequest) (*models.AppResponse, error) {
	s.logger.Info("Install: installing app type=%s for tenant=%d", req.AppType, req.TenantID)

	catalogApp, ok := domain.AppCatalog[req.AppType]
	if !ok {
		s.logger.Warn("Install: unknown app type=%s for tenant=%d", req.AppType, req.TenantID)
		return nil, fmt.Errorf("%w: %s", ErrUnknownAppType, req.AppType)
	}

	scopes := make([]domain.AppScope, len(catalogApp.Scopes))
	copy(scopes, catalogApp.Scopes)

	settings := req.Settings
	if settings == nil {
		settings = map[string]string{}
	}

	app := &domain.ConnectedApp{
		TenantID: req.TenantID,
		Type:     catalogApp.Type,
		Name:     catalogApp.Name,
		Status:   domain.AppStatusPending,
		Scopes:   scopes,
		Settings: settings,
	}

	created, err := s.appRepo.Create(ctx, app)
	if err != nil {
		s.logger.Error("Install: repository error for tenant=%d, type=%s: %v", req.TenantID, req.AppType, err)
		return nil, fmt.Errorf("%w: Install - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Install: successfully installed app id=%d, type=%s for tenant=%d",
		created.ID, created.Type, req.TenantID)
	return models.FromDomainApp(created), nil
}

// GetByID получает приложение по ID в рамках тенанта
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*models.AppResponse, error) {
	s.logger.Info("GetByID: fetching app id=%d for tenant=%d", id, tenantID)

	app, err := s.appRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, appRepo.ErrAppNotFound) {
			s.logger.Warn("GetByID: app id=%d not found for tenant=%d", id, tenantID)
			return nil, ErrAppNotFound
		}
		s.logger.Error("GetByID: repository error for app id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainApp(app), nil
}

// List получает все установленные приложения тенанта
func (s *Service) List(ctx context.Context, tenantID int64) (*models.AppListResponse, error) {
	s.logger.Info("List: fetching apps for tenant=%d", tenantID)

	apps, err := s.appRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("List: repository error for tenant=%d: %v", tenantID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d apps for tenant=%d", len(apps), tenantID)
	return models.FromDomainAppList(apps), nil
}

// GetAppsByScope получает приложения тенанта, объявившие заданный scope.
// Отключенные приложения исключаются, чтобы хуки не выполнялись против них
func (s *Service) GetAppsByScope(ctx context.Context, tenantID int64, scope domain.AppScope) ([]*domain.ConnectedApp, error) {
	apps, err := s.appRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("GetAppsByScope: repository error for tenant=%d, scope=%s: %v", tenantID, scope, err)
		return nil, fmt.Errorf("%w: GetAppsByScope - repository error: %v", ErrInternal, err)
	}

	var matched []*domain.ConnectedApp
	for _, app := range apps {
		if app.IsDispatchable() && app.HasScope(scope) {
			matched = append(matched, app)
		}
	}

	return matched, nil
}

// GetAppsByType получает приложения тенанта заданного типа каталога
func (s *Service) GetAppsByType(ctx context.Context, tenantID int64, appType string) ([]*domain.ConnectedApp, error) {
	apps, err := s.appRepo.GetByTenantAndType(ctx, tenantID, appType)
	if err != nil {
		s.logger.Error("GetAppsByType: repository error for tenant=%d, type=%s: %v", tenantID, appType, err)
		return nil, fmt.Errorf("%w: GetAppsByType - repository error: %v", ErrInternal, err)
	}

	return apps, nil
}

// Update применяет частичное обновление приложения.
// Статус вне допустимого набора отклоняется как ошибка данных.
// Физического удаления нет: отключение это смена статуса на disconnected
func (s *Service) Update(ctx context.Context, req *models.UpdateAppRequest) (*models.AppResponse, error) {
	s.logger.Info("Update: updating app id=%d for tenant=%d", req.AppID, req.TenantID)

	patch := appRepo.UpdatePatch{
		StatusText: req.StatusText,
		Settings:   req.Settings,
	}

	if req.Status != nil {
		status := domain.AppStatus(*req.Status)
		if !domain.ValidAppStatus(status) {
			s.logger.Warn("Update: invalid status=%s for app id=%d", *req.Status, req.AppID)
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		patch.Status = &status
	}

	if err := s.appRepo.Update(ctx, req.TenantID, req.AppID, patch); err != nil {
		if errors.Is(err, appRepo.ErrAppNotFound) {
			s.logger.Warn("Update: app id=%d not found for tenant=%d", req.AppID, req.TenantID)
			return nil, ErrAppNotFound
		}
		s.logger.Error("Update: repository error for app id=%d: %v", req.AppID, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	updated, err := s.appRepo.GetByID(ctx, req.TenantID, req.AppID)
	if err != nil {
		s.logger.Error("Update: failed to re-read app id=%d: %v", req.AppID, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: successfully updated app id=%d for tenant=%d", req.AppID, req.TenantID)
	return models.FromDomainApp(updated), nil
}
