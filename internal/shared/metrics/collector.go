package metrics

import (
	"context"
	"time"
)

type Collector interface {
	RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool)
	RecordConversion(ctx context.Context, direction string, unmapped int)
	RecordFindings(ctx context.Context, severity string, count int)
	RecordEdits(ctx context.Context, kind string, count int)
	Close() error
}

type NoOpCollector struct{}

func NewNoOpCollector() *NoOpCollector {
	return &NoOpCollector{}
}

func (c *NoOpCollector) RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool) {
}

func (c *NoOpCollector) RecordConversion(ctx context.Context, direction string, unmapped int) {
}

func (c *NoOpCollector) RecordFindings(ctx context.Context, severity string, count int) {
}

func (c *NoOpCollector) RecordEdits(ctx context.Context, kind string, count int) {
}

func (c *NoOpCollector) Close() error {
	return nil
}
