package create_appointment

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	apptmodels "github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	CustomerID    int64   `json:"customerId,omitempty"`
	OptionID      int64   `json:"optionId"`
	AddonIDs      []int64 `json:"addonIds,omitempty"`
	StartAt       string  `json:"startAt"` // ISO 8601
	TotalDuration *int    `json:"totalDurationMinutes,omitempty"`
	DiscountCode  *string `json:"discountCode,omitempty"`
	CustomerName  string  `json:"customerName,omitempty"`
	CustomerEmail string  `json:"customerEmail,omitempty"`
	CustomerPhone string  `json:"customerPhone,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	ForceConfirm  bool    `json:"forceConfirm,omitempty"`
	Actor         string  `json:"actor"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case.
// TenantID приходит из контекста аутентификации, а не из тела запроса
func (r *CreateAppointmentRequest) ToUseCaseRequest(tenantID int64) (*createAppointment.Request, error) {
	startAt, err := time.Parse(time.RFC3339, r.StartAt)
	if err != nil {
		return nil, fmt.Errorf("parse startAt: %w", err)
	}

	actor, err := apptmodels.ToDomainActor(r.Actor)
	if err != nil {
		return nil, err
	}

	return &createAppointment.Request{
		TenantID:      tenantID,
		CustomerID:    r.CustomerID,
		OptionID:      r.OptionID,
		AddonIDs:      r.AddonIDs,
		StartAt:       startAt,
		TotalDuration: r.TotalDuration,
		DiscountCode:  r.DiscountCode,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		Notes:         r.Notes,
		ForceConfirm:  r.ForceConfirm,
		Actor:         actor,
	}, nil
}

// CreateAppointmentResponse HTTP response model
type CreateAppointmentResponse struct {
	ID         int64  `json:"id"`
	TenantID   int64  `json:"tenantId"`
	CustomerID int64  `json:"customerId"`
	StartAt    string `json:"startAt"`
	Status     string `json:"status"`

	Option   OptionSnapshotResponse    `json:"option"`
	Addons   []AddonSnapshotResponse   `json:"addons"`
	Discount *DiscountSnapshotResponse `json:"discount,omitempty"`

	TotalDuration int     `json:"totalDurationMinutes"`
	TotalPrice    float64 `json:"totalPrice"`

	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerPhone string  `json:"customerPhone"`
	Notes         *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OptionSnapshotResponse снимок опции услуги
type OptionSnapshotResponse struct {
	OptionID     int64   `json:"optionId"`
	Name         string  `json:"name"`
	DurationType string  `json:"durationType"`
	Duration     int     `json:"durationMinutes"`
	Price        float64 `json:"price"`
	PricePerHour float64 `json:"pricePerHour,omitempty"`
}

// AddonSnapshotResponse снимок дополнения
type AddonSnapshotResponse struct {
	AddonID  int64   `json:"addonId"`
	Name     string  `json:"name"`
	Duration int     `json:"durationMinutes"`
	Price    float64 `json:"price"`
}

// DiscountSnapshotResponse снимок применённой скидки
type DiscountSnapshotResponse struct {
	DiscountID int64   `json:"discountId"`
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	Amount     float64 `json:"amount"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createAppointment.Response) *CreateAppointmentResponse {
	out := &CreateAppointmentResponse{
		ID:         resp.ID,
		TenantID:   resp.TenantID,
		CustomerID: resp.CustomerID,
		StartAt:    resp.StartAt.Format(time.RFC3339),
		Status:     resp.Status,
		Option: OptionSnapshotResponse{
			OptionID:     resp.Option.OptionID,
			Name:         resp.Option.Name,
			DurationType: string(resp.Option.DurationType),
			Duration:     resp.Option.Duration,
			Price:        resp.Option.Price,
			PricePerHour: resp.Option.PricePerHour,
		},
		Addons:        make([]AddonSnapshotResponse, 0, len(resp.Addons)),
		TotalDuration: resp.TotalDuration,
		TotalPrice:    resp.TotalPrice,
		CustomerName:  resp.CustomerName,
		CustomerEmail: resp.CustomerEmail,
		CustomerPhone: resp.CustomerPhone,
		Notes:         resp.Notes,
		CreatedAt:     resp.CreatedAt,
		UpdatedAt:     resp.UpdatedAt,
	}

	for _, addon := range resp.Addons {
		out.Addons = append(out.Addons, AddonSnapshotResponse{
			AddonID:  addon.AddonID,
			Name:     addon.Name,
			Duration: addon.Duration,
			Price:    addon.Price,
		})
	}

	if resp.Discount != nil {
		out.Discount = discountSnapshot(resp.Discount)
	}

	return out
}

func discountSnapshot(d *domain.DiscountSnapshot) *DiscountSnapshotResponse {
	return &DiscountSnapshotResponse{
		DiscountID: d.DiscountID,
		Code:       d.Code,
		Type:       string(d.Type),
		Value:      d.Value,
		Amount:     d.Amount,
	}
}
