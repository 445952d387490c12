package monitor

import "time"

// SchedulePolicy decide la cadencia de chequeo en función de la hora del
// día en una zona civil fija (servicio de dominio puro, sin I/O).
// Las ventanas se evalúan sobre la hora 0–23: inclusivas en el límite
// inferior, exclusivas en el superior.
type SchedulePolicy struct {
	Location *time.Location

	DowntimeStartHour int
	DowntimeEndHour   int
	PeakStartHour     int
	PeakEndHour       int

	PeakInterval   time.Duration
	NormalInterval time.Duration
}

// IntervalFor devuelve el intervalo hasta el próximo chequeo para el
// instante dado. ok=false significa downtime: no debe haber chequeos.
func (p SchedulePolicy) IntervalFor(now time.Time) (time.Duration, bool) {
	hour := now.In(p.Location).Hour()

	switch {
	case p.DowntimeStartHour <= hour && hour < p.DowntimeEndHour:
		return 0, false
	case p.PeakStartHour <= hour && hour < p.PeakEndHour:
		return p.PeakInterval, true
	default:
		return p.NormalInterval, true
	}
}

// InDowntime indica si el instante cae dentro de la ventana sin chequeos.
func (p SchedulePolicy) InDowntime(now time.Time) bool {
	_, ok := p.IntervalFor(now)
	return !ok
}

// NextActiveInstant devuelve el instante de reanudación: si now está en
// downtime, el próximo DowntimeEndHour:00:00 en la zona fija (pasando al
// día siguiente si ese instante no queda en el futuro); si no, now sin
// cambios. Es idempotente y monótona: dos instantes dentro de la misma
// ventana de downtime producen el mismo resultado.
func (p SchedulePolicy) NextActiveInstant(now time.Time) time.Time {
	if !p.InDowntime(now) {
		return now
	}

	local := now.In(p.Location)
	resume := time.Date(local.Year(), local.Month(), local.Day(), p.DowntimeEndHour, 0, 0, 0, p.Location)
	if !resume.After(now) {
		resume = resume.AddDate(0, 0, 1)
	}
	return resume
}
