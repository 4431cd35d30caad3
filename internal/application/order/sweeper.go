package order

import (
	"context"
	"log"
	"time"
)

// Sweeper 每隔 interval 清理逾期未付款訂單。
type Sweeper struct {
	uc        *UseCase
	unpaidTTL time.Duration
	interval  time.Duration
}

func NewSweeper(uc *UseCase, unpaidTTL, interval time.Duration) *Sweeper {
	return &Sweeper{uc: uc, unpaidTTL: unpaidTTL, interval: interval}
}

// Run 阻塞執行，直到 ctx 取消。啟動時先跑一輪。
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	n, err := s.uc.CleanupUnpaid(ctx, s.unpaidTTL)
	if err != nil {
		log.Printf("[Sweeper] cleanup unpaid orders failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Sweeper] removed %d unpaid orders older than %v", n, s.unpaidTTL)
	}
}
