package client

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
	"lifelog/internal/utils/datauri"
)

// DefaultStatsDebounce - задержка пересчета после последнего изменения зеркала
const DefaultStatsDebounce = 300 * time.Millisecond

// StorageStats - снимок использования хранилища
type StorageStats struct {
	TotalRecords   int     `json:"totalRecords"`
	TextRecords    int     `json:"textRecords"`
	AudioRecords   int     `json:"audioRecords"`
	ImageRecords   int     `json:"imageRecords"`
	VideoRecords   int     `json:"videoRecords"`
	MediaBytes     int64   `json:"mediaBytes"`
	AudioBytes     int64   `json:"audioBytes"`
	TextBytes      int64   `json:"textBytes"`
	UsedSpace      int64   `json:"usedSpace"`
	TotalSpace     int64   `json:"totalSpace"`
	AvailableSpace int64   `json:"availableSpace"`
	UsagePercent   float64 `json:"usagePercent"`
	// QuotaEstimated - false, если TotalSpace взят из запасного значения, а не измерен
	QuotaEstimated bool      `json:"quotaEstimated"`
	ComputedAt     time.Time `json:"computedAt"`
}

// Compute считает статистику по записям. Чистая функция.
func Compute(records []record.Record, quota Quota) StorageStats {
	var st StorageStats

	for i := range records {
		rec := &records[i]
		st.TotalRecords++

		if rec.Content != "" {
			st.TextRecords++
			// Оценка: два байта на символ
			st.TextBytes += int64(2 * utf8.RuneCountInString(rec.Content))
		}

		if rec.HasAudio {
			st.AudioRecords++
			st.AudioBytes += datauri.DecodedLen(rec.AudioData)
		}

		var hasImage, hasVideo bool
		for _, m := range rec.Images {
			st.MediaBytes += m.Size
			switch m.Type {
			case record.MediaTypeImage:
				hasImage = true
			case record.MediaTypeVideo:
				hasVideo = true
			}
		}
		if hasImage {
			st.ImageRecords++
		}
		if hasVideo {
			st.VideoRecords++
		}
	}

	st.UsedSpace = st.MediaBytes + st.AudioBytes + st.TextBytes
	st.TotalSpace = quota.Total
	st.QuotaEstimated = quota.Estimated

	if st.TotalSpace > st.UsedSpace {
		st.AvailableSpace = st.TotalSpace - st.UsedSpace
	}
	if st.TotalSpace > 0 {
		st.UsagePercent = float64(st.UsedSpace) / float64(st.TotalSpace) * 100
	}

	return st
}

// Stats пересчитывает статистику по зеркалу с задержкой, склеивая серии изменений в один проход
type Stats struct {
	records  *Records
	quota    QuotaEstimator
	debounce time.Duration
	metrics  *StatsMetrics
	log      *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	timer       *time.Timer
	current     StorageStats
	unsubscribe func()
	closed      bool
}

func NewStats(records *Records, quota QuotaEstimator, debounce time.Duration, metrics *StatsMetrics, log *slog.Logger) *Stats {
	s := &Stats{
		records:  records,
		quota:    quota,
		debounce: debounce,
		metrics:  metrics,
		log:      log.With("component", "stats"),
		now:      time.Now,
	}
	s.unsubscribe = records.Subscribe(func([]record.Record) { s.schedule() })
	return s
}

// schedule откладывает пересчет; каждое новое изменение сдвигает его
func (s *Stats) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Refresh(ctx)
	})
}

// Refresh пересчитывает статистику немедленно
func (s *Stats) Refresh(ctx context.Context) StorageStats {
	quota := s.quota.Estimate(ctx)
	st := Compute(s.records.Snapshot(), quota)
	st.ComputedAt = s.now()

	s.mu.Lock()
	s.current = st
	s.mu.Unlock()

	s.metrics.Observe(st)
	s.log.Debug("storage stats recomputed",
		"records", st.TotalRecords,
		"used_bytes", st.UsedSpace,
		"usage_percent", st.UsagePercent,
	)
	return st
}

// GetStorageStats возвращает последний посчитанный снимок
func (s *Stats) GetStorageStats() StorageStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close отписывается от зеркала и отменяет отложенный пересчет
func (s *Stats) Close() {
	s.unsubscribe()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
