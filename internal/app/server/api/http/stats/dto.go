package stats

import (
	"lifelog/internal/app/client"
)

type Input struct {
	Refresh bool `query:"refresh" doc:"Пересчитать немедленно, не дожидаясь отложенного пересчета"`
}

type Output struct {
	Body client.StorageStats
}
