package worker

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// leaderLockKey — один посевщик на весь кластер.
const leaderLockKey = "clinic:slot-seeder:leader"

// HorizonSeeder — то, что умеет досевать слоты на горизонт вперёд.
type HorizonSeeder interface {
	SeedHorizon(ctx context.Context, from time.Time, days, capacity int) (int, error)
}

type SeederConfig struct {
	CronSpec string
	Days     int
	Capacity int
	LockTTL  time.Duration
}

// Seeder периодически досевает слоты на скользящий горизонт.
type Seeder struct {
	log    *zap.Logger
	cfg    SeederConfig
	locker Locker
	seeder HorizonSeeder
	now    func() time.Time

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSeeder(log *zap.Logger, cfg SeederConfig, locker Locker, seeder HorizonSeeder) *Seeder {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &Seeder{log: log, cfg: cfg, locker: locker, seeder: seeder, now: time.Now}
}

// Start запускает расписание и сразу делает один прогон.
func (s *Seeder) Start(ctx context.Context) error {
	s.runCtx, s.cancel = context.WithCancel(ctx)

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.CronSpec, func() { s.RunOnce(s.runCtx) }); err != nil {
		s.cancel()
		return err
	}
	c.Start()
	s.cron = c

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunOnce(s.runCtx)
	}()
	return nil
}

// Stop останавливает расписание и ждёт завершения текущего прогона.
func (s *Seeder) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()
}

// RunOnce — один прогон под блокировкой лидера. Возвращает число созданных слотов.
func (s *Seeder) RunOnce(ctx context.Context) int {
	ttl := s.cfg.LockTTL
	acquired, token, err := s.locker.TryLock(ctx, leaderLockKey, ttl)
	if err != nil {
		s.log.Warn("seeder: leader lock attempt failed", zap.Error(err))
		return 0
	}
	if !acquired {
		s.log.Info("seeder: leader lock held by another instance")
		return 0
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), leaderLockKey, token); err != nil {
			s.log.Warn("seeder: unlock failed", zap.Error(err))
		}
	}()

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()
	go func() {
		tick := time.NewTicker(ttl / 2)
		defer tick.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-tick.C:
				if err := s.locker.Refresh(refreshCtx, leaderLockKey, token, ttl); err != nil {
					s.log.Warn("seeder: leader lock refresh failed", zap.Error(err))
				}
			}
		}
	}()

	created, err := s.seeder.SeedHorizon(ctx, s.now(), s.cfg.Days, s.cfg.Capacity)
	if err != nil {
		s.log.Error("seeder: seeding failed", zap.Int("created", created), zap.Error(err))
		return created
	}
	s.log.Info("seeder: horizon seeded",
		zap.Int("days", s.cfg.Days),
		zap.Int("created", created),
	)
	return created
}
