package create_appointment

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}

	if req.CustomerID < 0 {
		return fmt.Errorf("%w: customerID must not be negative", ErrInvalidInput)
	}

	if req.OptionID <= 0 {
		return fmt.Errorf("%w: optionID must be positive", ErrInvalidInput)
	}

	for _, addonID := range req.AddonIDs {
		if addonID <= 0 {
			return fmt.Errorf("%w: addonID must be positive", ErrInvalidInput)
		}
	}

	if req.StartAt.IsZero() {
		return fmt.Errorf("%w: startAt is required", ErrInvalidInput)
	}

	if req.TotalDuration != nil && *req.TotalDuration <= 0 {
		return fmt.Errorf("%w: totalDuration must be positive", ErrInvalidInput)
	}

	if req.DiscountCode != nil && *req.DiscountCode == "" {
		return fmt.Errorf("%w: discountCode must not be empty", ErrInvalidInput)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	// Новому клиенту нужны полные контактные данные, дозаполнять неоткуда
	if req.CustomerID == 0 {
		if req.CustomerName == "" || req.CustomerEmail == "" || req.CustomerPhone == "" {
			return fmt.Errorf("%w: name, email and phone are required for a new customer", ErrInvalidInput)
		}
	}

	return nil
}

// validateStartAt проверяет, что запись создается не в прошлом
func validateStartAt(startAt, now time.Time) error {
	if !startAt.After(now) {
		return ErrPastAppointment
	}
	return nil
}

// validateContact проверяет, что после дозаполнения из CustomerService
// контактные данные полны
func validateContact(name, email, phone string) error {
	if name == "" || email == "" || phone == "" {
		return fmt.Errorf("%w: customer contact data is incomplete", ErrInvalidInput)
	}
	return nil
}
