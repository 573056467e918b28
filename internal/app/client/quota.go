package client

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"
)

// DefaultFallbackQuota - условный объем, когда реальный узнать нельзя. Это грубая оценка, а не предел устройства.
const DefaultFallbackQuota int64 = 1 << 30

// Quota - сколько места доступно приложению
type Quota struct {
	Total     int64
	Estimated bool
}

type QuotaEstimator interface {
	Estimate(ctx context.Context) Quota
}

// FSQuota оценивает квоту по файловой системе, на которой лежит база.
// Если задан MaxBytes, квота равна ему.
type FSQuota struct {
	DataPath string
	MaxBytes int64
	Fallback int64
	log      *slog.Logger
	statfs   func(dir string) (available int64, err error)
}

func NewFSQuota(dataPath string, maxBytes, fallback int64, log *slog.Logger) *FSQuota {
	if fallback <= 0 {
		fallback = DefaultFallbackQuota
	}
	return &FSQuota{
		DataPath: dataPath,
		MaxBytes: maxBytes,
		Fallback: fallback,
		log:      log.With("component", "quota"),
		statfs:   availableBytes,
	}
}

// Estimate: свободное место на диске плюс уже занятое базой
func (q *FSQuota) Estimate(_ context.Context) Quota {
	if q.MaxBytes > 0 {
		return Quota{Total: q.MaxBytes, Estimated: true}
	}

	available, err := q.statfs(filepath.Dir(q.DataPath))
	if err != nil {
		q.log.Debug("filesystem quota unavailable, using fallback", "error", err)
		return Quota{Total: q.Fallback, Estimated: false}
	}

	var used int64
	for _, name := range []string{q.DataPath, q.DataPath + "-wal"} {
		if info, err := os.Stat(name); err == nil {
			used += info.Size()
		}
	}

	return Quota{Total: available + used, Estimated: true}
}
