package middleware

import (
	"github.com/danielgtaylor/huma/v2"
)

// Func - сигнатура мидлвари huma
type Func = func(ctx huma.Context, next func(huma.Context))

// Container собирает наборы мидлварей для обработчиков.
// Общие мидлвари идут первыми в каждом наборе.
type Container struct {
	common  huma.Middlewares
	pending huma.Middlewares
}

// NewContainer создает контейнер с мидлварями, общими для всех обработчиков
func NewContainer(common ...Func) *Container {
	mc := &Container{}
	for _, mw := range common {
		mc.common = append(mc.common, mw)
	}
	return mc
}

// Add добавляет мидлварь в следующий набор
func (mc *Container) Add(middleware Func) *Container {
	mc.pending = append(mc.pending, middleware)
	return mc
}

// Build возвращает общий набор плюс добавленные мидлвари и очищает добавленные
func (mc *Container) Build() huma.Middlewares {
	result := make(huma.Middlewares, 0, len(mc.common)+len(mc.pending))
	result = append(result, mc.common...)
	result = append(result, mc.pending...)
	mc.pending = nil
	return result
}
