package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper удаляет устаревшие лог-файлы
type Sweeper interface {
	SweepRetention(daysToKeep int) ([]string, error)
}

// Scheduler управляет запланированной очисткой логов
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	days    int
	log     zerolog.Logger

	mu      sync.Mutex
	running bool
}

// New создает новый планировщик. spec задается cron-выражением (UTC), например "@daily".
func New(sweeper Sweeper, spec string, daysToKeep int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		spec:    spec,
		days:    daysToKeep,
		log:     log,
	}
}

// Start выполняет очистку один раз сразу и затем по расписанию
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Sweep); err != nil {
		return err
	}
	s.Sweep()
	s.cron.Start()
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.log.Info().Str("schedule", s.spec).Int("retentionDays", s.days).Msg("Log retention scheduler started")
	return nil
}

// Sweep запускает одну очистку
func (s *Scheduler) Sweep() {
	removed, err := s.sweeper.SweepRetention(s.days)
	if err != nil {
		s.log.Error().Err(err).Msg("Log retention sweep failed")
	}
	if len(removed) > 0 {
		s.log.Info().Int("removed", len(removed)).Msg("Log retention sweep finished")
	}
}

// Stop останавливает планировщик и ждет завершения текущей очистки
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.log.Info().Msg("Log retention scheduler stopped")
}

// IsRunning сообщает, что планировщик запущен и еще не остановлен
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
