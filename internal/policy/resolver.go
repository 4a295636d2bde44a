package policy

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Resolve находит тир политики, применимый к запросу, поданному за
// minutesBefore минут до начала записи.
//
// Выбирается тир с наименьшим порогом MinutesToAppointment, который запрос
// всё ещё удовлетворяет (порог <= minutesBefore), то есть самое строгое из
// применимых ограничений. Список тиров логически упорядочен по убыванию
// порога, но на отсортированность входа полагаться нельзя: сканируем
// защитно весь список.
//
// Если список пуст или ни один порог не удовлетворен (запрос пришел раньше
// всех настроенных тиров), возвращается defaultTier. nil-результат
// вызывающая сторона обязана трактовать как "не разрешено", а не как
// отсутствие ограничений.
func Resolve(tiers []domain.PolicyTier, minutesBefore float64, defaultTier *domain.PolicyTier) *domain.PolicyTier {
	if len(tiers) == 0 {
		return defaultTier
	}

	var best *domain.PolicyTier
	for i := range tiers {
		tier := &tiers[i]
		if float64(tier.MinutesToAppointment) > minutesBefore {
			continue
		}
		if best == nil || tier.MinutesToAppointment < best.MinutesToAppointment {
			best = tier
		}
	}

	if best == nil {
		return defaultTier
	}
	return best
}

// ResolveForRequest применяет политику тенанта к конкретному запросу.
//
// Если политика выключена, возвращает ErrPolicyDisabled. Если запись уже
// началась или в прошлом (diffMinutes <= 0), возвращает синтетический тир
// "не разрешено, нулевое уведомление", не сверяясь со списком тиров:
// same-day edge case не должен проваливаться в мягкий default.
//
// Минуты считаются непрерывной (неокругленной) разницей; вызывающая сторона
// не должна предварительно округлять время, иначе запросы ровно на границе
// тира резолвятся неконсистентно.
func ResolveForRequest(cfg domain.PolicyConfig, appointmentAt, requestAt time.Time) (*domain.PolicyTier, error) {
	if !cfg.Enabled {
		return nil, ErrPolicyDisabled
	}

	diffMinutes := appointmentAt.Sub(requestAt).Minutes()
	if diffMinutes <= 0 {
		return domain.ZeroNoticeTier(), nil
	}

	return Resolve(cfg.Tiers, diffMinutes, cfg.DefaultTier), nil
}
