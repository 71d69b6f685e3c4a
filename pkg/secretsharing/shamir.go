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
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/polynomial"
)

// MaxShares is the largest share count; x-values must be nonzero bytes.
const MaxShares = 255

// SplitConfig configures secret sharing parameters.
type SplitConfig struct {
	Threshold   int // M - minimum shares needed to reconstruct
	TotalShares int // N - total shares to create

	// XValues optionally sets the x-coordinate of each share. It must hold
	// exactly TotalShares distinct values in [1,255]. Defaults to 1..N.
	XValues []int

	// Random supplies polynomial coefficients. Defaults to crypto/rand.
	Random rand.Generator

	// Workers > 1 spreads byte positions across goroutines. The output is
	// identical to the sequential path.
	Workers int
}

// Shamir is a validated split configuration.
type Shamir struct {
	threshold int
	xs        []byte
	random    rand.Generator
	workers   int
}

// NewShamir validates config and returns a reusable instance. config is not
// retained.
func NewShamir(config *SplitConfig) (*Shamir, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	t, n := config.Threshold, config.TotalShares
	if t < 1 {
		return nil, fmt.Errorf("%w: threshold must be at least 1, got %d", ErrInvalidConfig, t)
	}
	if n > MaxShares {
		return nil, fmt.Errorf("%w: total shares must be <= %d, got %d", ErrInvalidConfig, MaxShares, n)
	}
	if n < t {
		return nil, fmt.Errorf("%w: total shares (%d) must be >= threshold (%d)", ErrInvalidConfig, n, t)
	}

	xs, err := xValues(config.XValues, n)
	if err != nil {
		return nil, err
	}

	return &Shamir{
		threshold: t,
		xs:        xs,
		random:    config.Random,
		workers:   config.Workers,
	}, nil
}

// xValues converts caller x-values to field elements, rejecting anything
// outside [1,255] rather than truncating it. An empty list selects 1..n.
func xValues(in []int, n int) ([]byte, error) {
	xs := make([]byte, n)
	if len(in) == 0 {
		for i := range xs {
			xs[i] = byte(i + 1)
		}
		return xs, nil
	}

	if len(in) != n {
		return nil, fmt.Errorf("%w: got %d x-values for %d shares", ErrInvalidXValue, len(in), n)
	}
	var seen [MaxShares + 1]bool
	for i, x := range in {
		if x < 1 || x > MaxShares {
			return nil, fmt.Errorf("%w: x-values[%d] = %d not in [1,%d]", ErrInvalidXValue, i, x, MaxShares)
		}
		if seen[x] {
			return nil, fmt.Errorf("%w: x-values[%d] = %d is a duplicate", ErrInvalidXValue, i, x)
		}
		seen[x] = true
		xs[i] = byte(x)
	}
	return xs, nil
}

// Threshold returns the configured threshold.
func (s *Shamir) Threshold() int {
	return s.threshold
}

// TotalShares returns the configured share count.
func (s *Shamir) TotalShares() int {
	return len(s.xs)
}

// XValues returns a copy of the share x-coordinates.
func (s *Shamir) XValues() []byte {
	xs := make([]byte, len(s.xs))
	copy(xs, s.xs)
	return xs
}

// Split divides secret into TotalShares shares, any Threshold of which
// reconstruct it.
func Split(secret []byte, config *SplitConfig) ([]Share, error) {
	s, err := NewShamir(config)
	if err != nil {
		return nil, err
	}
	return s.Split(secret)
}

// Split divides a secret into N shares, requiring M to reconstruct.
func (s *Shamir) Split(secret []byte) ([]Share, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	random := s.random
	if random == nil {
		r, err := rand.NewResolver(rand.ModeSoftware)
		if err != nil {
			return nil, fmt.Errorf("secretsharing: default random source: %w", err)
		}
		defer func() { _ = r.Close() }()
		random = r
	}

	shares := make([]Share, len(s.xs))
	for i, x := range s.xs {
		shares[i].Index = x
		shares[i].Value = make([]byte, len(secret))
	}

	var err error
	if w := s.effectiveWorkers(len(secret)); w > 1 {
		err = s.splitParallel(secret, shares, random, w)
	} else {
		err = s.splitRange(secret, shares, random, 0, len(secret))
	}
	if err != nil {
		ZeroizeAll(shares)
		return nil, err
	}
	return shares, nil
}

// splitRange fills byte positions [from,to) of every share.
func (s *Shamir) splitRange(secret []byte, shares []Share, random rand.Generator, from, to int) error {
	degree := s.threshold - 1
	for p := from; p < to; p++ {
		poly, err := polynomial.Build(secret[p], degree, random)
		if err != nil {
			return fmt.Errorf("secretsharing: byte %d: %w", p, err)
		}
		for i, x := range s.xs {
			shares[i].Value[p] = poly.Evaluate(x)
		}
		poly.Zeroize()
	}
	return nil
}

// splitParallel draws every position's coefficients in position order, then
// builds and evaluates the polynomials concurrently.
func (s *Shamir) splitParallel(secret []byte, shares []Share, random rand.Generator, workers int) error {
	degree := s.threshold - 1
	draws := make([][]byte, len(secret))
	defer func() {
		for _, d := range draws {
			for i := range d {
				d[i] = 0
			}
		}
	}()
	if degree > 0 {
		for p := range draws {
			r, err := random.Rand(degree)
			if err != nil {
				return fmt.Errorf("secretsharing: byte %d: %w", p, err)
			}
			draws[p] = r
		}
	}

	var g errgroup.Group
	for _, c := range chunks(len(secret), workers) {
		from, to := c[0], c[1]
		g.Go(func() error {
			for p := from; p < to; p++ {
				pre := rand.GeneratorFunc(func(int) ([]byte, error) {
					return draws[p], nil
				})
				if err := s.splitRange(secret, shares, pre, p, p+1); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Combine reconstructs the secret from shares using Lagrange interpolation
// at x=0. Share order is irrelevant.
//
// Combine cannot know the original threshold. Given fewer shares than the
// threshold it returns a wrong secret without error.
func Combine(shares []Share) ([]byte, error) {
	return combine(shares, 1)
}

// Combine reconstructs the secret from shares. It does not enforce the
// configured threshold; see the package-level Combine.
func (s *Shamir) Combine(shares []Share) ([]byte, error) {
	return combine(shares, s.workers)
}

// Verify checks shares against this instance's threshold.
func (s *Shamir) Verify(shares []Share) error {
	return Verify(shares, s.threshold)
}

func combine(shares []Share, workers int) ([]byte, error) {
	xs, size, err := validateShares(shares)
	if err != nil {
		return nil, err
	}

	weights, err := polynomial.BasisAtZero(xs)
	if err != nil {
		return nil, fmt.Errorf("secretsharing: %w", err)
	}

	secret := make([]byte, size)
	solve := func(from, to int) error {
		ys := make([]byte, len(shares))
		for p := from; p < to; p++ {
			for i := range shares {
				ys[i] = shares[i].Value[p]
			}
			b, err := polynomial.Dot(weights, ys)
			if err != nil {
				return fmt.Errorf("secretsharing: byte %d: %w", p, err)
			}
			secret[p] = b
		}
		for i := range ys {
			ys[i] = 0
		}
		return nil
	}

	if workers = clampWorkers(workers, size); workers <= 1 {
		err = solve(0, size)
	} else {
		var g errgroup.Group
		for _, c := range chunks(size, workers) {
			from, to := c[0], c[1]
			g.Go(func() error { return solve(from, to) })
		}
		err = g.Wait()
	}
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// validateShares checks the share set and returns its x-coordinates and the
// common value length.
func validateShares(shares []Share) ([]byte, int, error) {
	if len(shares) == 0 {
		return nil, 0, ErrNoShares
	}

	size := len(shares[0].Value)
	xs := make([]byte, len(shares))
	var seen [MaxShares + 1]bool
	for i, sh := range shares {
		if sh.Index == 0 {
			return nil, 0, &ShareError{Position: i, Index: sh.Index, Err: ErrInvalidShareIndex}
		}
		if seen[sh.Index] {
			return nil, 0, &ShareError{Position: i, Index: sh.Index, Err: ErrDuplicateShareIndex}
		}
		seen[sh.Index] = true
		if len(sh.Value) != size {
			return nil, 0, &ShareError{
				Position: i,
				Index:    sh.Index,
				Err:      fmt.Errorf("%w: %d bytes, want %d", ErrShareLengthMismatch, len(sh.Value), size),
			}
		}
		xs[i] = sh.Index
	}
	if size == 0 {
		return nil, 0, ErrEmptyShare
	}
	return xs, size, nil
}

func (s *Shamir) effectiveWorkers(size int) int {
	return clampWorkers(s.workers, size)
}

func clampWorkers(workers, size int) int {
	if workers > size {
		return size
	}
	return workers
}

// chunks splits [0,size) into n contiguous [from,to) ranges.
func chunks(size, n int) [][2]int {
	out := make([][2]int, 0, n)
	step := (size + n - 1) / n
	for from := 0; from < size; from += step {
		to := from + step
		if to > size {
			to = size
		}
		out = append(out, [2]int{from, to})
	}
	return out
}
