package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, o *models.Observation) error
}

// ObservationPipeline sits between the telemetry stream and the backend.
// It validates, throttles per site+feature, optionally transforms, and
// buffers when downstream is unavailable.
type ObservationPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Observation
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per site+feature last accepted time
	// simple format transform hook (optional)
	transform func(*models.Observation) *models.Observation
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*ObservationPipeline)

// WithMaxRPS sets the max observations per second per site+feature.
func WithMaxRPS(n int) PipelineOption {
	return func(p *ObservationPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *ObservationPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to normalize observation format.
func WithTransform(fn func(*models.Observation) *models.Observation) PipelineOption {
	return func(p *ObservationPipeline) { p.transform = fn }
}

// NewObservationPipeline creates a new pipeline.
func NewObservationPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ObservationPipeline {
	p := &ObservationPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per site+feature
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.Observation, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Observation, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(key string) { p.metrics.RecordError("pipeline_throttle_" + key) }
	return p
}

// Start launches background flushing of buffered observations.
func (p *ObservationPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case o := <-p.bufCh:
				if o == nil {
					continue
				}
				if err := p.proc.Process(ctx, o); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- o:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *ObservationPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards the observation downstream,
// buffering on errors.
func (p *ObservationPipeline) Process(ctx context.Context, o *models.Observation) error {
	start := time.Now()
	if err := validateObservation(o); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		o = p.transform(o)
		if err := validateObservation(o); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	key := o.SiteID + "/" + o.Feature
	if !p.allow(key, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(key)
		}
		return nil
	}

	if err := p.proc.Process(ctx, o); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- o:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateObservation(o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("observation nil")
	}
	if !o.ModelType.IsValid() {
		return fmt.Errorf("unknown model type %q", o.ModelType)
	}
	if o.Feature == "" {
		return fmt.Errorf("feature empty")
	}
	if o.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return fmt.Errorf("value not finite")
	}
	return nil
}

func (p *ObservationPipeline) allow(key string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	// simple throttle: at most maxRPS per second per key
	last := p.lastSeen[key]
	if last.IsZero() {
		p.lastSeen[key] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[key] = now
	return true
}
