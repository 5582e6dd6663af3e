package ml

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Skufu/glucorisk/internal/dataset"
	"github.com/Skufu/glucorisk/internal/patient"
	"github.com/Skufu/glucorisk/internal/workerpool"
	"github.com/Skufu/glucorisk/pkg/logger"
	"github.com/Skufu/glucorisk/pkg/metrics"
)

const tracerName = "github.com/Skufu/glucorisk/internal/ml"

// Engine predicts outcomes from a dataset file. The dataset is read when the engine is built;
// the model is trained on first demand and reused until the dataset changes.
type Engine struct {
	path   string
	cfg    Config
	pool   *workerpool.Pool
	log    *zap.Logger
	tracer trace.Tracer

	mu         sync.RWMutex
	table      *dataset.Table
	model      *Model
	generation uint64

	group singleflight.Group
}

// Option customises an Engine.
type Option func(*Engine)

// WithPool runs encoding, training and inference on p.
func WithPool(p *workerpool.Pool) Option {
	return func(e *Engine) { e.pool = p }
}

// WithConfig overrides the training parameters.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// NewEngine loads the dataset at path. It does not train.
func NewEngine(path string, opts ...Option) (*Engine, error) {
	tbl, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		path:   path,
		cfg:    DefaultConfig(),
		log:    logger.WithModule("ml"),
		tracer: otel.Tracer(tracerName),
		table:  tbl,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = workerpool.New(0)
	}
	return e, nil
}

// Predict classifies rec. Every field must be present.
func (e *Engine) Predict(ctx context.Context, rec patient.Record) (patient.Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "ml.Predict")
	defer span.End()

	out, err := e.predict(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.Predictions.WithLabelValues("error").Inc()
		return 0, err
	}

	span.SetAttributes(attribute.Int("ml.outcome", int(out)))
	metrics.Predictions.WithLabelValues(out.String()).Inc()
	return out, nil
}

func (e *Engine) predict(ctx context.Context, rec patient.Record) (patient.Outcome, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	model, err := e.Model(ctx)
	if err != nil {
		return 0, err
	}

	return workerpool.Do(ctx, e.pool, func(context.Context) (patient.Outcome, error) {
		return model.Predict(rec)
	})
}

// Model returns the trained model, training it if needed. Concurrent callers share one training.
func (e *Engine) Model(ctx context.Context) (*Model, error) {
	e.mu.RLock()
	model, gen, tbl := e.model, e.generation, e.table
	e.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	v, err, _ := e.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		// training outlives the request that triggered it; other callers may be waiting on it
		m, err := e.train(context.WithoutCancel(ctx), tbl)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		if e.generation == gen {
			e.model = m
		}
		e.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

func (e *Engine) train(ctx context.Context, tbl *dataset.Table) (*Model, error) {
	ctx, span := e.tracer.Start(ctx, "ml.Train")
	defer span.End()

	start := time.Now()
	m, err := Train(ctx, tbl, e.trainConfig())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Error("training failed", zap.String("dataset", e.path), zap.Error(err))
		return nil, fmt.Errorf("ml: train: %w", err)
	}
	elapsed := time.Since(start)

	metrics.ModelTrainings.Inc()
	metrics.TrainingDuration.Observe(elapsed.Seconds())
	e.log.Info("model trained",
		zap.String("dataset", e.path),
		zap.Int("rows", len(tbl.Rows)),
		zap.Int("trees", m.forest.Size()),
		zap.Float64("holdout_accuracy", m.HoldoutAccuracy()),
		zap.Duration("duration", elapsed),
		zap.Time("trained_at", m.TrainedAt()),
	)
	return m, nil
}

// trainConfig routes every tree fit through the pool, so training never runs more fits
// than the pool has slots.
func (e *Engine) trainConfig() Config {
	cfg := e.cfg
	if cfg.Parallelism <= 0 || cfg.Parallelism > e.pool.Size() {
		cfg.Parallelism = e.pool.Size()
	}
	cfg.Run = e.pool.Submit
	return cfg
}

// Invalidate drops the trained model; the next prediction retrains.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.model = nil
	e.generation++
	e.mu.Unlock()
}

// Reload re-reads the dataset if its content changed and invalidates the model. It reports
// whether anything changed.
func (e *Engine) Reload() (bool, error) {
	fp, err := dataset.Fingerprint(e.path)
	if err != nil {
		return false, fmt.Errorf("ml: fingerprint dataset: %w", err)
	}
	if fp == e.Fingerprint() {
		return false, nil
	}

	tbl, err := dataset.Load(e.path)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.table = tbl
	e.model = nil
	e.generation++
	e.mu.Unlock()

	e.log.Info("dataset changed, model invalidated", zap.String("dataset", e.path), zap.Int("rows", len(tbl.Rows)))
	return true, nil
}

// Fingerprint identifies the currently loaded dataset.
func (e *Engine) Fingerprint() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table.Fingerprint
}

// Path is the dataset file the engine reads.
func (e *Engine) Path() string {
	return e.path
}
