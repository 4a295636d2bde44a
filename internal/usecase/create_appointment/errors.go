package create_appointment

import "errors"

var (
	// ErrOptionNotFound возвращается, когда опция услуги не найдена
	ErrOptionNotFound = errors.New("create_appointment: service option not found")

	// ErrAddonNotFound возвращается, когда хотя бы один аддон не найден
	ErrAddonNotFound = errors.New("create_appointment: addon not found")

	// ErrCustomerNotFound возвращается, когда клиент не найден
	ErrCustomerNotFound = errors.New("create_appointment: customer not found")

	// ErrDiscountNotFound возвращается, когда промокод не найден
	ErrDiscountNotFound = errors.New("create_appointment: discount not found")

	// ErrDiscountNotApplicable возвращается, когда скидка неприменима к записи
	ErrDiscountNotApplicable = errors.New("create_appointment: discount not applicable")

	// ErrInvalidDuration возвращается при недопустимой длительности записи
	ErrInvalidDuration = errors.New("create_appointment: invalid total duration")

	// ErrPastAppointment возвращается при попытке создать запись в прошлом
	ErrPastAppointment = errors.New("create_appointment: appointment start is in the past")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)
