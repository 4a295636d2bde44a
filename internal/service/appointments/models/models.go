package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrInvalidActor возвращается при некорректном инициаторе действия
	ErrInvalidActor = errors.New("invalid actor")
)

// Request модели

// UpdateStatusRequest запрос на подтверждение или отклонение записи
type UpdateStatusRequest struct {
	TenantID      int64  `json:"tenantId"`
	AppointmentID int64  `json:"appointmentId"`
	Status        string `json:"status"` // "confirmed" | "declined"
	Actor         string `json:"actor"`
}

// ListAppointmentsRequest запрос на получение записей тенанта с фильтрацией
type ListAppointmentsRequest struct {
	TenantID        int64      `json:"tenantId"`
	CustomerID      *int64     `json:"customerId,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Status          *string    `json:"status,omitempty"`
	IncludeInactive bool       `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListAppointmentsRequest) ToDomainFilter() (domain.AppointmentFilter, error) {
	filter := domain.AppointmentFilter{
		TenantID:        r.TenantID,
		CustomerID:      r.CustomerID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// OptionSnapshotResponse снимок опции услуги в составе записи
type OptionSnapshotResponse struct {
	OptionID     int64   `json:"optionId"`
	Name         string  `json:"name"`
	DurationType string  `json:"durationType"`
	Duration     int     `json:"durationMinutes"`
	Price        float64 `json:"price"`
	PricePerHour float64 `json:"pricePerHour,omitempty"`
}

// AddonSnapshotResponse снимок дополнения в составе записи
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

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID         int64  `json:"id"`
	TenantID   int64  `json:"tenantId"`
	CustomerID int64  `json:"customerId"`
	StartAt    string `json:"startAt"` // ISO 8601
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

	RescheduledFromID *int64 `json:"rescheduledFromId,omitempty"`
	RescheduledToID   *int64 `json:"rescheduledToId,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// HistoryEventResponse событие истории записи
type HistoryEventResponse struct {
	ID            string          `json:"id"`
	AppointmentID int64           `json:"appointmentId"`
	Type          string          `json:"type"`
	Actor         string          `json:"actor"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// HistoryResponse ответ с историей записи
type HistoryResponse struct {
	Events []HistoryEventResponse `json:"events"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:         a.ID,
		TenantID:   a.TenantID,
		CustomerID: a.CustomerID,
		StartAt:    a.StartAt.Format(time.RFC3339),
		Status:     string(a.Status),
		Option: OptionSnapshotResponse{
			OptionID:     a.Option.OptionID,
			Name:         a.Option.Name,
			DurationType: string(a.Option.DurationType),
			Duration:     a.Option.Duration,
			Price:        a.Option.Price,
			PricePerHour: a.Option.PricePerHour,
		},
		Addons:             make([]AddonSnapshotResponse, 0, len(a.Addons)),
		TotalDuration:      a.TotalDuration,
		TotalPrice:         a.TotalPrice,
		CustomerName:       a.CustomerName,
		CustomerEmail:      a.CustomerEmail,
		CustomerPhone:      a.CustomerPhone,
		Notes:              a.Notes,
		RescheduledFromID:  a.RescheduledFromID,
		RescheduledToID:    a.RescheduledToID,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	for _, addon := range a.Addons {
		resp.Addons = append(resp.Addons, AddonSnapshotResponse{
			AddonID:  addon.AddonID,
			Name:     addon.Name,
			Duration: addon.Duration,
			Price:    addon.Price,
		})
	}

	if a.Discount != nil {
		resp.Discount = &DiscountSnapshotResponse{
			DiscountID: a.Discount.DiscountID,
			Code:       a.Discount.Code,
			Type:       string(a.Discount.Type),
			Value:      a.Discount.Value,
			Amount:     a.Discount.Amount,
		}
	}

	if a.CancelledAt != nil {
		cancelledStr := a.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appointments []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appointments)),
	}

	for _, appt := range appointments {
		if apptResp := FromDomainAppointment(appt); apptResp != nil {
			resp.Appointments = append(resp.Appointments, *apptResp)
		}
	}

	return resp
}

// FromDomainHistory конвертирует события истории в DTO
func FromDomainHistory(events []*domain.HistoryEvent) *HistoryResponse {
	resp := &HistoryResponse{
		Events: make([]HistoryEventResponse, 0, len(events)),
	}

	for _, ev := range events {
		resp.Events = append(resp.Events, HistoryEventResponse{
			ID:            ev.ID.String(),
			AppointmentID: ev.AppointmentID,
			Type:          string(ev.Type),
			Actor:         string(ev.Actor),
			Payload:       ev.Payload,
			CreatedAt:     ev.CreatedAt,
		})
	}

	return resp
}

// ToDomainStatus конвертирует строку в domain.AppointmentStatus с валидацией
func ToDomainStatus(status string) (domain.AppointmentStatus, error) {
	s := domain.AppointmentStatus(status)

	switch s {
	case domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusDeclined,
		domain.StatusCancelled,
		domain.StatusRescheduled:
		return s, nil
	}

	return "", ErrInvalidStatus
}

// ToDomainActor конвертирует строку в domain.Actor с валидацией
func ToDomainActor(actor string) (domain.Actor, error) {
	a := domain.Actor(actor)

	switch a {
	case domain.ActorCustomer, domain.ActorStaff, domain.ActorSystem:
		return a, nil
	}

	return "", ErrInvalidActor
}
