package reschedule_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на перенос записи
type Request struct {
	TenantID      int64
	AppointmentID int64
	NewStartAt    time.Time
	Actor         domain.Actor
}

// Response модель ответа с результатом переноса.
// Исходная запись закрывается статусом rescheduled, преемник наследует
// расчет и контактные данные; обе записи связаны аудит-ссылками
type Response struct {
	OldAppointmentID int64
	NewAppointmentID int64
	NewStartAt       time.Time
	Status           string
	Breakdown        domain.RescheduleBreakdown
}
