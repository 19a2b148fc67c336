// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttled drops log lines beyond a rate limit and reports how many were
// dropped on the next line that gets through.
type Throttled struct {
	limiter    *rate.Limiter
	logger     *log.Logger
	suppressed atomic.Int64
}

// NewThrottled allows burst lines immediately, then one per interval. A nil
// logger writes to WarningLog as it is at call time.
func NewThrottled(logger *log.Logger, interval time.Duration, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
		logger:  logger,
	}
}

// Printf logs the message if the limiter allows it.
func (t *Throttled) Printf(format string, args ...any) bool {
	if !t.limiter.Allow() {
		t.suppressed.Add(1)
		return false
	}

	msg := fmt.Sprintf(format, args...)
	if n := t.suppressed.Swap(0); n > 0 {
		msg += fmt.Sprintf(" suppressed=%d", n)
	}

	logger := t.logger
	if logger == nil {
		logger = WarningLog
	}
	logger.Print(msg)
	return true
}

// Suppressed returns the number of lines dropped since the last one logged.
func (t *Throttled) Suppressed() int64 {
	return t.suppressed.Load()
}
