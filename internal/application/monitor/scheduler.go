package monitor

import (
	"context"
	"time"

	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

const (
	// fallbackInterval se usa cuando la política produce un retardo
	// inválido, para que la cadena nunca se detenga en silencio.
	fallbackInterval = 5 * time.Minute
	// initialDelay da tiempo a que el bot termine de arrancar antes de
	// la corrida inicial forzada.
	initialDelay = 10 * time.Second
	// runTimeout acota una corrida completa (fetch incluido).
	runTimeout = 2 * time.Minute
)

// Scheduler encadena corridas de reconciliación con un timer one-shot que
// se re-arma después de cada corrida, porque el intervalo depende de la
// hora del día. No hay corridas solapadas: cada una dispara la siguiente.
// La primera corrida es forzada (se ejecuta aunque arranque en downtime,
// para calentar catálogo y base); las siguientes respetan el downtime.
type Scheduler struct {
	policy SchedulePolicy
	run    func(ctx context.Context) error
	log    *logger.Logger
	now    func() time.Time
}

// NewScheduler construye el scheduler sobre la política y la corrida dadas.
func NewScheduler(policy SchedulePolicy, run func(ctx context.Context) error, log *logger.Logger) *Scheduler {
	return &Scheduler{policy: policy, run: run, log: log, now: time.Now}
}

// Start lanza la cadena en segundo plano hasta que ctx se cancele.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	if !s.sleep(ctx, initialDelay) {
		return
	}
	s.execute(ctx, true)

	for {
		delay := s.NextDelay(s.now())
		s.log.Info().Dur("espera", delay).Msg("próximo chequeo programado")
		if !s.sleep(ctx, delay) {
			return
		}
		s.execute(ctx, false)
	}
}

// NextDelay decide cuánto esperar desde now hasta el próximo chequeo:
// en downtime, hasta el instante de reanudación; fuera, el intervalo de
// la ventana vigente. Ante un retardo no positivo cae al intervalo por
// defecto para no romper la cadena.
func (s *Scheduler) NextDelay(now time.Time) time.Duration {
	if interval, ok := s.policy.IntervalFor(now); ok {
		if interval <= 0 {
			s.log.Warn().Msg("intervalo configurado inválido, usando fallback")
			return fallbackInterval
		}
		return interval
	}

	resume := s.policy.NextActiveInstant(now)
	delay := resume.Sub(now)
	if delay <= 0 {
		s.log.Warn().Msg("instante de reanudación en el pasado, usando fallback")
		return fallbackInterval
	}
	s.log.Info().Time("reanudacion", resume).Msg("en downtime, chequeo pospuesto")
	return delay
}

func (s *Scheduler) execute(ctx context.Context, force bool) {
	now := s.now()
	if s.policy.InDowntime(now) {
		if !force {
			// Resguardo por deriva de reloj: el timer no debería vencer
			// dentro del downtime, pero si pasa, no se chequea.
			s.log.Info().Msg("chequeo omitido durante downtime")
			return
		}
		s.log.Info().Msg("corrida inicial forzada durante downtime")
	}

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	if err := s.run(runCtx); err != nil {
		// La corrida falló completa (rollback); la cadena sigue viva y el
		// próximo ciclo reintenta desde cero.
		s.log.Error().Err(err).Msg("corrida de reconciliación fallida")
	}
}

// sleep espera d o la cancelación del contexto; false si hay que salir.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
