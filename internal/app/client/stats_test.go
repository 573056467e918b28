package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelog/internal/domain/record"
	"lifelog/internal/utils/datauri"
)

type countingQuota struct {
	calls int32
	quota Quota
}

func (q *countingQuota) Estimate(context.Context) Quota {
	atomic.AddInt32(&q.calls, 1)
	return q.quota
}

// usedSpace считает занятое место напрямую, независимо от Compute
func usedSpace(records []record.Record) int64 {
	var total int64
	for _, rec := range records {
		total += int64(2 * utf8.RuneCountInString(rec.Content))
		if rec.HasAudio {
			raw, err := datauri.Decode(rec.AudioData, "")
			if err == nil {
				total += int64(len(raw.Data))
			}
		}
		for _, m := range rec.Images {
			total += m.Size
		}
	}
	return total
}

func media(kind record.MediaType, size int64) record.MediaData {
	return record.MediaData{ID: fmt.Sprintf("%s-%d", kind, size), Type: kind, Size: size, MimeType: "application/octet-stream"}
}

func mixedRecords(n int) []record.Record {
	records := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := record.Record{ID: fmt.Sprintf("r%d", i)}
		switch i % 5 {
		case 0:
			rec.Content = "текст на русском"
		case 1:
			rec.HasAudio = true
			rec.AudioData = datauri.Encode(make([]byte, 100+i), "audio/webm")
		case 2:
			rec.Images = []record.MediaData{media(record.MediaTypeImage, int64(1000+i))}
		case 3:
			rec.Content = "both"
			rec.Images = []record.MediaData{media(record.MediaTypeImage, 10), media(record.MediaTypeVideo, int64(5000+i))}
		case 4:
			// пустая запись
		}
		rec.HasImages = len(rec.Images) > 0
		records = append(records, rec)
	}
	return records
}

func TestCompute(t *testing.T) {
	quota := Quota{Total: 1 << 30, Estimated: true}

	tests := []struct {
		name    string
		records []record.Record
		want    StorageStats
	}{
		{
			name:    "no records",
			records: nil,
			want:    StorageStats{TotalSpace: 1 << 30, AvailableSpace: 1 << 30, QuotaEstimated: true},
		},
		{
			name:    "one text record",
			records: []record.Record{{ID: "a", Content: "hello"}},
			want: StorageStats{
				TotalRecords: 1, TextRecords: 1, TextBytes: 10, UsedSpace: 10,
				TotalSpace: 1 << 30, AvailableSpace: 1<<30 - 10, QuotaEstimated: true,
				UsagePercent: float64(10) / float64(1<<30) * 100,
			},
		},
		{
			name: "two images and a video",
			records: []record.Record{{
				ID:        "a",
				HasImages: true,
				Images: []record.MediaData{
					media(record.MediaTypeImage, 300),
					media(record.MediaTypeImage, 200),
					media(record.MediaTypeVideo, 5000),
				},
			}},
			want: StorageStats{
				TotalRecords: 1, ImageRecords: 1, VideoRecords: 1, MediaBytes: 5500, UsedSpace: 5500,
				TotalSpace: 1 << 30, AvailableSpace: 1<<30 - 5500, QuotaEstimated: true,
				UsagePercent: float64(5500) / float64(1<<30) * 100,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.records, quota)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, usedSpace(tt.records), got.UsedSpace)
		})
	}
}

func TestCompute_MixedDataset(t *testing.T) {
	records := mixedRecords(50)
	got := Compute(records, Quota{Total: DefaultFallbackQuota})

	assert.Equal(t, 50, got.TotalRecords)
	assert.Equal(t, 20, got.TextRecords)
	assert.Equal(t, 10, got.AudioRecords)
	assert.Equal(t, 20, got.ImageRecords)
	assert.Equal(t, 10, got.VideoRecords)
	assert.Equal(t, usedSpace(records), got.UsedSpace)
	assert.Equal(t, got.MediaBytes+got.AudioBytes+got.TextBytes, got.UsedSpace)
	assert.False(t, got.QuotaEstimated)
}

func TestCompute_QuotaSmallerThanUsage(t *testing.T) {
	got := Compute([]record.Record{{ID: "a", Images: []record.MediaData{media(record.MediaTypeImage, 200)}}}, Quota{Total: 100})

	assert.Zero(t, got.AvailableSpace)
	assert.Equal(t, float64(200), got.UsagePercent)
}

func TestStats_MatchesDirectSum(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.records.AddRecord(ctx, "text", nil, nil, nil)
	require.NoError(t, err)
	_, err = fx.records.AddRecord(ctx, "", nil,
		&record.Audio{Data: datauri.Encode(make([]byte, 777), "audio/webm"), Duration: 2, Format: "webm"},
		[]record.MediaData{photo("one"), photo("two"), clip("three", 2)})
	require.NoError(t, err)

	stats := NewStats(fx.records, &countingQuota{quota: Quota{Total: 1 << 20, Estimated: true}}, time.Hour, NewStatsMetrics(nil), discardLogger())
	defer stats.Close()

	stats.now = func() time.Time { return *fx.clock }
	stats.Refresh(ctx)
	got := stats.GetStorageStats()

	assert.Equal(t, usedSpace(fx.records.Snapshot()), got.UsedSpace)
	assert.Equal(t, int64(777), got.AudioBytes)
	assert.Equal(t, 1, got.ImageRecords)
	assert.Equal(t, 1, got.VideoRecords)
	assert.Equal(t, *fx.clock, got.ComputedAt)
}

func TestStats_DebounceCoalescesBursts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	quota := &countingQuota{quota: Quota{Total: 1 << 20}}

	stats := NewStats(fx.records, quota, 100*time.Millisecond, NewStatsMetrics(nil), discardLogger())
	defer stats.Close()

	for i := 0; i < 5; i++ {
		_, err := fx.records.AddRecord(ctx, fmt.Sprintf("entry %d", i), nil, nil, nil)
		require.NoError(t, err)
	}
	assert.Zero(t, stats.GetStorageStats().TotalRecords)

	assert.Eventually(t, func() bool {
		return stats.GetStorageStats().TotalRecords == 5
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&quota.calls))
}

func TestStats_CloseStopsRecompute(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	quota := &countingQuota{}

	stats := NewStats(fx.records, quota, 10*time.Millisecond, NewStatsMetrics(nil), discardLogger())
	stats.Close()

	_, err := fx.records.AddRecord(ctx, "x", nil, nil, nil)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&quota.calls))
}

func TestStatsMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStatsMetrics(reg)

	metrics.Observe(StorageStats{TotalRecords: 3, ImageRecords: 2, UsedSpace: 4096, TotalSpace: 1 << 20})

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, float64(4096), gaugeValue(mfs, "lifelog_storage_used_bytes", ""))
	assert.Equal(t, float64(1<<20), gaugeValue(mfs, "lifelog_storage_total_bytes", ""))
	assert.Equal(t, float64(3), gaugeValue(mfs, "lifelog_records_total", "all"))
	assert.Equal(t, float64(2), gaugeValue(mfs, "lifelog_records_total", "image"))

	// Без регистратора метрики молча отключены
	NewStatsMetrics(nil).Observe(StorageStats{UsedSpace: 1})
	var nilMetrics *StatsMetrics
	nilMetrics.Observe(StorageStats{})
}

func gaugeValue(mfs []*dto.MetricFamily, name, kind string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if kind == "" {
				return metric.GetGauge().GetValue()
			}
			for _, label := range metric.GetLabel() {
				if label.GetName() == "kind" && label.GetValue() == kind {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	return -1
}

func TestFSQuota(t *testing.T) {
	dir := t.TempDir()

	t.Run("configured limit", func(t *testing.T) {
		q := NewFSQuota(dir+"/lifelog.db", 50<<20, 0, discardLogger())
		assert.Equal(t, Quota{Total: 50 << 20, Estimated: true}, q.Estimate(context.Background()))
	})

	t.Run("fallback", func(t *testing.T) {
		q := NewFSQuota(dir+"/lifelog.db", 0, 0, discardLogger())
		q.statfs = func(string) (int64, error) { return 0, errors.New("unsupported") }
		assert.Equal(t, Quota{Total: DefaultFallbackQuota, Estimated: false}, q.Estimate(context.Background()))
	})

	t.Run("filesystem", func(t *testing.T) {
		q := NewFSQuota(dir+"/lifelog.db", 0, 0, discardLogger())
		q.statfs = func(string) (int64, error) { return 1 << 30, nil }
		got := q.Estimate(context.Background())
		assert.True(t, got.Estimated)
		assert.Equal(t, int64(1<<30), got.Total)
	})
}
