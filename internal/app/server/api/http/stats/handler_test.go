package stats

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"lifelog/internal/app/client"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetStorageStats() client.StorageStats {
	return m.Called().Get(0).(client.StorageStats)
}

func (m *MockProvider) Refresh(ctx context.Context) client.StorageStats {
	return m.Called(ctx).Get(0).(client.StorageStats)
}

func TestHandler_stats(t *testing.T) {
	cached := client.StorageStats{TotalRecords: 3, ComputedAt: time.Unix(100, 0)}
	fresh := client.StorageStats{TotalRecords: 4, ComputedAt: time.Unix(200, 0)}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("cached snapshot", func(t *testing.T) {
		p := new(MockProvider)
		p.On("GetStorageStats").Return(cached)

		out, err := NewHandler(p, log, huma.Middlewares{}).stats(ctx, &Input{})

		assert.NoError(t, err)
		assert.Equal(t, 3, out.Body.TotalRecords)
		p.AssertNotCalled(t, "Refresh", mock.Anything)
	})

	t.Run("explicit refresh", func(t *testing.T) {
		p := new(MockProvider)
		p.On("GetStorageStats").Return(cached).Maybe()
		p.On("Refresh", ctx).Return(fresh)

		out, err := NewHandler(p, log, huma.Middlewares{}).stats(ctx, &Input{Refresh: true})

		assert.NoError(t, err)
		assert.Equal(t, 4, out.Body.TotalRecords)
	})

	t.Run("never computed", func(t *testing.T) {
		p := new(MockProvider)
		p.On("GetStorageStats").Return(client.StorageStats{})
		p.On("Refresh", ctx).Return(fresh)

		out, err := NewHandler(p, log, huma.Middlewares{}).stats(ctx, &Input{})

		assert.NoError(t, err)
		assert.Equal(t, 4, out.Body.TotalRecords)
		p.AssertExpectations(t)
	})
}
