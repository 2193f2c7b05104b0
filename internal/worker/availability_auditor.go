package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-transit-booking/internal/pkg/logger"
)

// AvailabilityChecker は空席数の整合性を監査するインターフェース
type AvailabilityChecker interface {
	AuditAvailability(ctx context.Context) (int, error)
}

// AvailabilityAuditor は運行便の空席数と予約台帳の突き合わせを
// 定期的に行うワーカー。違反は修復せず、ログとメトリクスで通報する
type AvailabilityAuditor struct {
	journeyService AvailabilityChecker
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewAvailabilityAuditor は新しい監査ワーカーを作成
func NewAvailabilityAuditor(js AvailabilityChecker, interval time.Duration) *AvailabilityAuditor {
	return &AvailabilityAuditor{
		journeyService: js,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start は監査ワーカーを開始
func (a *AvailabilityAuditor) Start(ctx context.Context) {
	logger.Info("空席数監査ワーカー開始",
		zap.Duration("interval", a.interval),
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	defer close(a.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("空席数監査ワーカー停止（コンテキストキャンセル）")
			return
		case <-a.stopCh:
			logger.Info("空席数監査ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			a.audit(ctx)
		}
	}
}

// Stop は監査ワーカーを停止
func (a *AvailabilityAuditor) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

// audit は空席数の監査を1回実行
func (a *AvailabilityAuditor) audit(ctx context.Context) {
	log := logger.Get()
	log.Debug("空席数の監査開始")

	count, err := a.journeyService.AuditAvailability(ctx)
	if err != nil {
		log.Error("空席数の監査失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Warn("空席数の整合性違反を検出", zap.Int("count", count))
	} else {
		log.Debug("整合性違反なし")
	}
}
