package usecase

import (
	"context"
	"time"

	"GridPulse/internal/domain/models"
	drepo "GridPulse/internal/domain/repository"
	mid "GridPulse/internal/middleware"
)

// ObservationCollector drains the telemetry stream and processes observations.
type ObservationCollector struct {
	stream  drepo.ObservationStream
	proc    *ObservationProcessor
	metrics drepo.Metrics
	pipe    *mid.ObservationPipeline
}

// NewObservationCollector creates a new ObservationCollector instance.
func NewObservationCollector(stream drepo.ObservationStream, proc *ObservationProcessor, metrics drepo.Metrics, pipe *mid.ObservationPipeline) *ObservationCollector {
	return &ObservationCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the telemetry stream is connected.
func (c *ObservationCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *ObservationCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obCh, errCh)
	return nil
}

func (c *ObservationCollector) consume(ctx context.Context, obCh <-chan *models.Observation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case o := <-obCh:
			if o == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, o)
			} else {
				_ = c.proc.Process(ctx, o)
			}
			c.metrics.RecordLatency("ingest_lag_seconds", time.Since(o.Timestamp).Seconds())
		}
	}
}

func (c *ObservationCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying ObservationProcessor for lifecycle management.
func (c *ObservationCollector) Processor() *ObservationProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *ObservationCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
