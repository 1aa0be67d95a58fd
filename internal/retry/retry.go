// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retry

import (
	"context"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/bns/internal/confutil"
	"github.com/kaleido-io/bns/internal/log"
	"github.com/kaleido-io/bns/internal/msgs"
	"github.com/kaleido-io/bns/pkg/bnsconf"
)

// Retry drives receipt polling with exponential backoff
type Retry struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	maxAttempts  int
}

func NewRetryIndefinite(conf *bnsconf.RetryConfig, defaults ...*bnsconf.RetryConfig) *Retry {
	def := &bnsconf.GenericRetryDefaults.RetryConfig
	if len(defaults) > 0 {
		def = defaults[0]
	}
	return &Retry{
		initialDelay: confutil.DurationMin(conf.InitialDelay, 0, *def.InitialDelay),
		maxDelay:     confutil.DurationMin(conf.MaxDelay, 0, *def.MaxDelay),
		factor:       confutil.Float64Min(conf.Factor, 1.0, *def.Factor),
	}
}

func NewRetryLimited(conf *bnsconf.RetryConfigWithMax, defaults ...*bnsconf.RetryConfigWithMax) *Retry {
	def := bnsconf.GenericRetryDefaults
	if len(defaults) > 0 {
		def = defaults[0]
	}
	r := NewRetryIndefinite(&conf.RetryConfig, &def.RetryConfig)
	r.maxAttempts = confutil.IntMin(conf.MaxAttempts, 0, *def.MaxAttempts)
	return r
}

func (r *Retry) MaxAttempts() int {
	return r.maxAttempts
}

// Do calls the function until it succeeds, reports a non-retryable error,
// or the attempts are exhausted. The last error is returned.
func (r *Retry) Do(ctx context.Context, do func(attempt int) (retryable bool, err error)) error {
	for attempt := 1; ; attempt++ {
		retryable, err := do(attempt)
		if err == nil {
			return nil
		}
		log.L(ctx).Debugf("%s (attempt=%d)", err, attempt)
		if !retryable || (r.maxAttempts > 0 && attempt >= r.maxAttempts) {
			return err
		}
		if err := r.WaitDelay(ctx, attempt); err != nil {
			return err
		}
	}
}

func (r *Retry) delayFor(failureCount int) time.Duration {
	delay := r.initialDelay
	for i := 1; i < failureCount; i++ {
		delay = time.Duration(float64(delay) * r.factor)
		if delay > r.maxDelay {
			return r.maxDelay
		}
	}
	return delay
}

func (r *Retry) WaitDelay(ctx context.Context, failureCount int) error {
	if failureCount <= 0 {
		return nil
	}
	delay := r.delayFor(failureCount)
	log.L(ctx).Tracef("Retrying after %.2fs (failures=%d)", delay.Seconds(), failureCount)
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return i18n.NewError(ctx, msgs.MsgContextCanceled)
	}
}

// UTSetMaxAttempts is for unit tests that need a bounded retry
func (r *Retry) UTSetMaxAttempts(maxAttempts int) {
	r.maxAttempts = maxAttempts
}
