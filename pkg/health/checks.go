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

package health

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jeremyhahn/go-sss/pkg/crypto/rand"
	"github.com/jeremyhahn/go-sss/pkg/secretsharing"
	"github.com/jeremyhahn/go-sss/pkg/storage"
)

// probeKey is written and removed by StorageCheck.
const probeKey = "health/probe"

// RandomCheck reports whether generator can produce bytes. Resolvers that
// report themselves unavailable are unhealthy without being read.
func RandomCheck(generator rand.Generator) CheckFunc {
	return func(ctx context.Context) CheckResult {
		result := CheckResult{Name: "random"}
		if r, ok := generator.(rand.Resolver); ok && !r.Available() {
			result.Status = StatusUnhealthy
			result.Message = "random source unavailable"
			return result
		}
		if err := ctx.Err(); err != nil {
			return unhealthy(result, err)
		}
		b, err := generator.Rand(32)
		if err != nil {
			return unhealthy(result, err)
		}
		if len(b) != 32 {
			return unhealthy(result, fmt.Errorf("short read: %d of 32 bytes", len(b)))
		}
		if bytes.Equal(b, make([]byte, 32)) {
			result.Status = StatusDegraded
			result.Message = "random source returned all zero bytes"
			return result
		}
		result.Status = StatusHealthy
		result.Message = "random source ok"
		return result
	}
}

// StorageCheck writes, reads back, and deletes a probe value.
func StorageCheck(backend storage.Backend) CheckFunc {
	return func(ctx context.Context) CheckResult {
		result := CheckResult{Name: "storage"}
		if err := ctx.Err(); err != nil {
			return unhealthy(result, err)
		}
		want := []byte("ok")
		if err := backend.Put(probeKey, want, nil); err != nil {
			return unhealthy(result, err)
		}
		got, err := backend.Get(probeKey)
		_ = backend.Delete(probeKey)
		if err != nil {
			return unhealthy(result, err)
		}
		if !bytes.Equal(got, want) {
			return unhealthy(result, fmt.Errorf("probe value mismatch"))
		}
		result.Status = StatusHealthy
		result.Message = "storage ok"
		return result
	}
}

// SelfTestCheck splits and recombines a fixed secret with a deterministic
// source, covering the field and interpolation code paths.
func SelfTestCheck() CheckFunc {
	return func(ctx context.Context) CheckResult {
		result := CheckResult{Name: "self_test"}
		if err := ctx.Err(); err != nil {
			return unhealthy(result, err)
		}

		secret := []byte("sss self test")
		shares, err := secretsharing.Split(secret, &secretsharing.SplitConfig{
			Threshold:   3,
			TotalShares: 5,
			Random:      rand.NewInsecureDeterministic(1),
		})
		if err != nil {
			return unhealthy(result, err)
		}
		got, err := secretsharing.Combine(shares[2:])
		if err != nil {
			return unhealthy(result, err)
		}
		if !bytes.Equal(got, secret) {
			return unhealthy(result, fmt.Errorf("combine returned the wrong secret"))
		}
		if err := secretsharing.Verify(shares, 3); err != nil {
			return unhealthy(result, err)
		}
		result.Status = StatusHealthy
		result.Message = "split/combine ok"
		return result
	}
}

func unhealthy(result CheckResult, err error) CheckResult {
	result.Status = StatusUnhealthy
	result.Error = err.Error()
	return result
}
