package cancel_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на отмену записи
type Request struct {
	TenantID      int64
	AppointmentID int64
	Actor         domain.Actor
	Reason        *string // Причина отмены (опционально)
}

// Response модель ответа с результатом отмены.
// Breakdown фиксирует условия, рассчитанные политикой на момент отмены;
// он же сохраняется в журнале записи
type Response struct {
	ID          int64
	Status      string
	CancelledAt time.Time
	Breakdown   domain.CancellationBreakdown
}
