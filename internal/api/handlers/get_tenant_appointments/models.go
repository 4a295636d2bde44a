package get_tenant_appointments

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

const dateLayout = "2006-01-02"

// ParseListRequest собирает модель сервиса из query-параметров.
// Даты принимаются как RFC 3339 или как YYYY-MM-DD
func ParseListRequest(tenantID int64, query url.Values) (*models.ListAppointmentsRequest, error) {
	req := &models.ListAppointmentsRequest{
		TenantID: tenantID,
	}

	if raw := query.Get("customerId"); raw != "" {
		customerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || customerID <= 0 {
			return nil, fmt.Errorf("parse customerId %q: %w", raw, err)
		}
		req.CustomerID = &customerID
	}

	if raw := query.Get("startDate"); raw != "" {
		startDate, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		req.StartDate = &startDate
	}

	if raw := query.Get("endDate"); raw != "" {
		endDate, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		req.EndDate = &endDate
	}

	if raw := query.Get("status"); raw != "" {
		req.Status = &raw
	}

	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parse includeInactive %q: %w", raw, err)
		}
		req.IncludeInactive = includeInactive
	}

	return req, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}
