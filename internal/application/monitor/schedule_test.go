package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de la política horaria: las tres zonas (downtime, pico, normal)
// particionan el ciclo de 24 horas sin huecos ni solapes, con límites
// inclusivos abajo y exclusivos arriba, evaluados en la zona fija IST.
// ──────────────────────────────────────────────────────────────────────────────

var ist = time.FixedZone("IST", 5*3600+30*60)

func testPolicy() monitor.SchedulePolicy {
	return monitor.SchedulePolicy{
		Location:          ist,
		DowntimeStartHour: 0,
		DowntimeEndHour:   6,
		PeakStartHour:     6,
		PeakEndHour:       16,
		PeakInterval:      2 * time.Minute,
		NormalInterval:    10 * time.Minute,
	}
}

func atHour(hour, minute int) time.Time {
	return time.Date(2025, 3, 12, hour, minute, 0, 0, ist)
}

func TestIntervalFor_ParticionaLas24Horas(t *testing.T) {
	p := testPolicy()

	for hour := 0; hour < 24; hour++ {
		interval, ok := p.IntervalFor(atHour(hour, 30))

		switch {
		case hour < 6:
			assert.False(t, ok, "hora %d debe ser downtime", hour)
		case hour < 16:
			require.True(t, ok, "hora %d debe ser activa", hour)
			assert.Equal(t, 2*time.Minute, interval, "hora %d debe usar intervalo pico", hour)
		default:
			require.True(t, ok, "hora %d debe ser activa", hour)
			assert.Equal(t, 10*time.Minute, interval, "hora %d debe usar intervalo normal", hour)
		}
	}
}

func TestIntervalFor_LimitesInclusivoExclusivo(t *testing.T) {
	p := testPolicy()

	// 05:59 todavía downtime; 06:00 ya es pico (límite superior exclusivo).
	_, ok := p.IntervalFor(atHour(5, 59))
	assert.False(t, ok, "05:59 debe seguir en downtime")

	interval, ok := p.IntervalFor(atHour(6, 0))
	require.True(t, ok, "06:00 debe ser activa")
	assert.Equal(t, 2*time.Minute, interval)

	// 15:59 pico; 16:00 ya normal.
	interval, ok = p.IntervalFor(atHour(15, 59))
	require.True(t, ok)
	assert.Equal(t, 2*time.Minute, interval)

	interval, ok = p.IntervalFor(atHour(16, 0))
	require.True(t, ok)
	assert.Equal(t, 10*time.Minute, interval)

	// 00:00 arranca el downtime (límite inferior inclusivo).
	_, ok = p.IntervalFor(atHour(0, 0))
	assert.False(t, ok, "00:00 debe ser downtime")
}

func TestIntervalFor_EvaluaEnLaZonaFija(t *testing.T) {
	p := testPolicy()

	// 22:00 UTC = 03:30 IST del día siguiente: downtime aunque en UTC sea
	// plena noche activa.
	utc := time.Date(2025, 3, 12, 22, 0, 0, 0, time.UTC)
	_, ok := p.IntervalFor(utc)
	assert.False(t, ok, "la hora debe evaluarse en IST, no en la zona del instante")
}

func TestNextActiveInstant_EnDowntimeApuntaAlFinDeVentana(t *testing.T) {
	p := testPolicy()
	now := atHour(2, 15)

	resume := p.NextActiveInstant(now)

	expected := atHour(6, 0)
	assert.True(t, resume.Equal(expected), "debe reanudar a las 06:00 IST, obtuvo %v", resume)
	assert.True(t, resume.After(now), "la reanudación debe ser estrictamente futura")
}

func TestNextActiveInstant_IdempotenteYMonotona(t *testing.T) {
	p := testPolicy()

	r1 := p.NextActiveInstant(atHour(1, 0))
	r2 := p.NextActiveInstant(atHour(1, 0))
	r3 := p.NextActiveInstant(atHour(4, 30))

	assert.True(t, r1.Equal(r2), "misma entrada debe dar misma salida")
	assert.True(t, r1.Equal(r3), "dos instantes de la misma ventana deben reanudar igual")
}

func TestNextActiveInstant_FueraDeDowntimeDevuelveNow(t *testing.T) {
	p := testPolicy()
	now := atHour(11, 45)

	assert.True(t, p.NextActiveInstant(now).Equal(now))
}

func TestNextActiveInstant_RuedaAlDiaSiguiente(t *testing.T) {
	// Ventana 22–24: a las 23:00 el fin de ventana (hora 24 = 00:00) cae en
	// el día siguiente.
	p := monitor.SchedulePolicy{
		Location:          ist,
		DowntimeStartHour: 23,
		DowntimeEndHour:   24,
		PeakStartHour:     6,
		PeakEndHour:       16,
		PeakInterval:      2 * time.Minute,
		NormalInterval:    10 * time.Minute,
	}

	now := atHour(23, 30)
	resume := p.NextActiveInstant(now)

	expected := time.Date(2025, 3, 13, 0, 0, 0, 0, ist)
	assert.True(t, resume.Equal(expected), "debe reanudar a medianoche del día siguiente, obtuvo %v", resume)
}
