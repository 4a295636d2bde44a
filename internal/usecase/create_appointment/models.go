package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на создание записи
type Request struct {
	TenantID   int64     // ID тенанта
	CustomerID int64     // ID клиента; при 0 клиент создается в CustomerService
	OptionID   int64     // ID опции услуги
	AddonIDs   []int64   // ID дополнений (опционально)
	StartAt    time.Time // Время начала записи

	// Полная длительность слота; обязательна для flexible-опций,
	// игнорируется для fixed
	TotalDuration *int

	DiscountCode *string // Промокод (опционально)

	// Контактные данные, денормализуемые на запись. Пустые поля
	// дозаполняются из CustomerService
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	Notes *string // Дополнительные заметки (опционально)

	// ForceConfirm создает запись сразу в статусе confirmed, минуя
	// auto_confirm настройку тенанта. Доступно только персоналу
	ForceConfirm bool
	Actor        domain.Actor
}

// Response модель ответа с созданной записью
type Response struct {
	ID         int64
	TenantID   int64
	CustomerID int64
	StartAt    time.Time
	Status     string

	// Денормализованные снапшоты расчета
	Option   domain.OptionSnapshot
	Addons   []domain.AddonSnapshot
	Discount *domain.DiscountSnapshot

	TotalDuration int     // минуты
	TotalPrice    float64 // после применения скидки

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
