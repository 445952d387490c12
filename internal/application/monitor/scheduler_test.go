package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del scheduler de timer re-armable: cálculo del próximo retardo por
// ventana, fallback ante configuración inválida y resguardo de downtime.
// ──────────────────────────────────────────────────────────────────────────────

func schedulerFixture(policy SchedulePolicy, run func(ctx context.Context) error) *Scheduler {
	return NewScheduler(policy, run, logger.Nop())
}

func schedulerPolicy() SchedulePolicy {
	return SchedulePolicy{
		Location:          time.FixedZone("IST", 5*3600+30*60),
		DowntimeStartHour: 0,
		DowntimeEndHour:   6,
		PeakStartHour:     6,
		PeakEndHour:       16,
		PeakInterval:      2 * time.Minute,
		NormalInterval:    10 * time.Minute,
	}
}

func schedulerInstant(p SchedulePolicy, hour, minute int) time.Time {
	return time.Date(2025, 3, 12, hour, minute, 0, 0, p.Location)
}

func TestNextDelay_UsaElIntervaloDeLaVentana(t *testing.T) {
	p := schedulerPolicy()
	s := schedulerFixture(p, nil)

	assert.Equal(t, 2*time.Minute, s.NextDelay(schedulerInstant(p, 9, 0)), "en pico usa el intervalo corto")
	assert.Equal(t, 10*time.Minute, s.NextDelay(schedulerInstant(p, 20, 0)), "fuera de pico usa el intervalo normal")
}

func TestNextDelay_EnDowntimeEsperaHastaLaReanudacion(t *testing.T) {
	p := schedulerPolicy()
	s := schedulerFixture(p, nil)

	now := schedulerInstant(p, 3, 0)
	delay := s.NextDelay(now)

	assert.Equal(t, 3*time.Hour, delay, "a las 03:00 debe esperar hasta las 06:00")
}

func TestNextDelay_FallbackAnteIntervaloInvalido(t *testing.T) {
	p := schedulerPolicy()
	p.PeakInterval = 0
	s := schedulerFixture(p, nil)

	delay := s.NextDelay(schedulerInstant(p, 9, 0))

	assert.Equal(t, fallbackInterval, delay, "un intervalo no positivo no debe detener la cadena")
}

func TestExecute_OmiteChequeoEnDowntimeSalvoForzado(t *testing.T) {
	p := schedulerPolicy()
	runs := 0
	s := schedulerFixture(p, func(ctx context.Context) error {
		runs++
		return nil
	})
	s.now = func() time.Time { return schedulerInstant(p, 2, 0) }

	s.execute(context.Background(), false)
	assert.Equal(t, 0, runs, "en downtime no debe correr")

	s.execute(context.Background(), true)
	assert.Equal(t, 1, runs, "la corrida inicial forzada corre incluso en downtime")
}

func TestExecute_ErrorDeCorridaNoRompeLaCadena(t *testing.T) {
	p := schedulerPolicy()
	s := schedulerFixture(p, func(ctx context.Context) error {
		return errors.New("fallo inyectado")
	})
	s.now = func() time.Time { return schedulerInstant(p, 9, 0) }

	// No debe entrar en pánico ni propagar: el error solo se loguea.
	require.NotPanics(t, func() { s.execute(context.Background(), false) })
}

func TestExecute_AcotaLaCorridaConTimeout(t *testing.T) {
	p := schedulerPolicy()
	var deadlineSet bool
	s := schedulerFixture(p, func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	})
	s.now = func() time.Time { return schedulerInstant(p, 9, 0) }

	s.execute(context.Background(), false)

	assert.True(t, deadlineSet, "cada corrida debe llevar deadline propio")
}
