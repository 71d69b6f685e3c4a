// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sss.
//
// go-sss is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package secretsharing

import (
	"context"
	"errors"
	"time"

	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/metrics"
	"github.com/jeremyhahn/go-sss/pkg/polynomial"
)

// Error types reported to metrics and logs.
const (
	ErrorTypeValidation   = "validation"
	ErrorTypeRandom       = "random"
	ErrorTypeInconsistent = "inconsistent"
	ErrorTypeCanceled     = "canceled"
	ErrorTypeInternal     = "internal"
)

// ClassifyError maps an error from this package to a short error type.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeCanceled
	case errors.Is(err, ErrValidation):
		return ErrorTypeValidation
	case errors.Is(err, ErrInconsistentShares):
		return ErrorTypeInconsistent
	case errors.Is(err, polynomial.ErrInsufficientRandomness), errors.Is(err, rand.ErrShortRead):
		return ErrorTypeRandom
	case errors.Is(err, polynomial.ErrValidation):
		return ErrorTypeValidation
	default:
		return ErrorTypeInternal
	}
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Logger defaults to a no-op logger.
	Logger logger.Logger

	// Source labels metrics with the calling surface (metrics.Source*).
	Source string

	// Random is passed to every split. Defaults to crypto/rand.
	Random rand.Generator

	// Workers is passed to every split and combine.
	Workers int
}

// Service runs Split, Combine, and Verify with logging and metrics. It is
// safe for concurrent use when its Random source is.
type Service struct {
	log     logger.Logger
	source  string
	random  rand.Generator
	workers int
}

// NewService creates a service from config. A nil config uses defaults.
func NewService(config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}
	log := config.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	source := config.Source
	if source == "" {
		source = metrics.SourceLibrary
	}
	return &Service{
		log:     log,
		source:  source,
		random:  config.Random,
		workers: config.Workers,
	}
}

// SplitRequest holds the parameters of one split.
type SplitRequest struct {
	Secret      []byte
	Threshold   int
	TotalShares int
	XValues     []int
}

// Split splits req.Secret. ctx is checked before any randomness is drawn.
func (s *Service) Split(ctx context.Context, req *SplitRequest) ([]Share, error) {
	if req == nil {
		req = &SplitRequest{}
	}
	start := time.Now()
	fields := []logger.Field{
		logger.Operation(metrics.OpSplit),
		logger.Threshold(req.Threshold),
		logger.Shares(req.TotalShares),
		logger.SecretLength(len(req.Secret)),
	}

	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, metrics.OpSplit, start, err, fields)
	}

	shares, err := Split(req.Secret, &SplitConfig{
		Threshold:   req.Threshold,
		TotalShares: req.TotalShares,
		XValues:     req.XValues,
		Random:      s.random,
		Workers:     s.workers,
	})
	if err != nil {
		return nil, s.fail(ctx, metrics.OpSplit, start, err, fields)
	}

	s.succeed(ctx, metrics.OpSplit, start, len(req.Secret), len(shares),
		append(fields, logger.ShareIndices(Indices(shares)))...)
	return shares, nil
}

// Combine reconstructs a secret from shares.
func (s *Service) Combine(ctx context.Context, shares []Share) ([]byte, error) {
	start := time.Now()
	fields := []logger.Field{
		logger.Operation(metrics.OpCombine),
		logger.Shares(len(shares)),
		logger.ShareIndices(Indices(shares)),
	}

	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, metrics.OpCombine, start, err, fields)
	}

	secret, err := combine(shares, s.workers)
	if err != nil {
		return nil, s.fail(ctx, metrics.OpCombine, start, err, fields)
	}

	s.succeed(ctx, metrics.OpCombine, start, len(secret), len(shares),
		append(fields, logger.SecretLength(len(secret)))...)
	return secret, nil
}

// Verify checks shares for consistency against threshold.
func (s *Service) Verify(ctx context.Context, shares []Share, threshold int) error {
	start := time.Now()
	fields := []logger.Field{
		logger.Operation(metrics.OpVerify),
		logger.Threshold(threshold),
		logger.Shares(len(shares)),
	}

	if err := ctx.Err(); err != nil {
		return s.fail(ctx, metrics.OpVerify, start, err, fields)
	}
	if err := Verify(shares, threshold); err != nil {
		return s.fail(ctx, metrics.OpVerify, start, err, fields)
	}

	metrics.RecordOperation(metrics.OpVerify, s.source, metrics.StatusSuccess, time.Since(start).Seconds())
	s.debug(ctx, "shares verified", fields...)
	return nil
}

func (s *Service) succeed(ctx context.Context, op string, start time.Time, secretLen, shares int, fields ...logger.Field) {
	d := time.Since(start)
	metrics.RecordOperation(op, s.source, metrics.StatusSuccess, d.Seconds())
	metrics.RecordVolume(op, secretLen, shares)
	s.debug(ctx, op+" complete", append(fields, logger.Int64("duration_us", d.Microseconds()))...)
}

func (s *Service) fail(ctx context.Context, op string, start time.Time, err error, fields []logger.Field) error {
	errType := ClassifyError(err)
	metrics.RecordOperation(op, s.source, metrics.StatusError, time.Since(start).Seconds())
	metrics.RecordError(op, s.source, errType)

	fields = append(fields, logger.String("error_type", errType), logger.Error(err))
	if errType == ErrorTypeValidation || errType == ErrorTypeCanceled {
		s.warn(ctx, op+" rejected", fields...)
	} else {
		s.error(ctx, op+" failed", fields...)
	}
	return err
}

func (s *Service) debug(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.log.(logger.ContextLogger); ok {
		cl.DebugContext(ctx, msg, fields...)
		return
	}
	s.log.Debug(msg, fields...)
}

func (s *Service) warn(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.log.(logger.ContextLogger); ok {
		cl.WarnContext(ctx, msg, fields...)
		return
	}
	s.log.Warn(msg, fields...)
}

func (s *Service) error(ctx context.Context, msg string, fields ...logger.Field) {
	if cl, ok := s.log.(logger.ContextLogger); ok {
		cl.ErrorContext(ctx, msg, fields...)
		return
	}
	s.log.Error(msg, fields...)
}
