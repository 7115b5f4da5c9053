// Copyright 2025 Poiesic Systems
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


package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/kbingest/ai"
	"github.com/poiesic/kbingest/metrics"
	"github.com/poiesic/kbingest/textclean"
)

// embed runs the per-text try loop.
func (c *Client) embed(ctx context.Context, text string) Result {
	text = textclean.Truncate(textclean.Clean(text), c.maxInputChars)
	name := c.transport.Name()

	var (
		res     Result
		lastErr error
	)
	for res.Attempts < c.maxAttempts {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		start := time.Now()
		vec, err := c.transport.Embed(ctx, text)
		if err == nil && len(vec) != c.dimension {
			err = fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), c.dimension)
		}
		c.metrics.ObserveAttempt(name, outcome(err), time.Since(start))

		if err == nil {
			res.Attempts++
			res.Vector = vec
			if res.Attempts > 1 || res.Halvings > 0 {
				c.logger.Debug("embedding succeeded after retry", "attempt", res.Attempts, "halvings", res.Halvings)
			}
			return res
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = ctxErr
			return res
		}
		lastErr = err

		if ai.IsServerError(err) && c.canHalve(text, res.Halvings) {
			text = textclean.Halve(text)
			res.Halvings++
			c.metrics.IncHalvings(name)
			c.logger.Debug("server error, halving input", "halvings", res.Halvings, "length", textclean.Len(text), "err", err)
			continue
		}

		res.Attempts++
		c.logger.Warn("embedding attempt failed", "attempt", res.Attempts, "maxAttempts", c.maxAttempts, "err", err)

		// Don't sleep after the last attempt
		if res.Attempts == c.maxAttempts {
			break
		}
		if err := wait(ctx, c.backoff); err != nil {
			res.Err = err
			return res
		}
	}

	c.metrics.IncDegraded(name)
	c.logger.Error("embedding failed, using zero vector",
		"attempts", res.Attempts,
		"halvings", res.Halvings,
		"preview", textclean.Truncate(text, previewLength),
		"err", lastErr)

	res.Vector = make([]float32, c.dimension)
	res.Degraded = true
	res.Unreachable = ai.IsUnreachable(lastErr)
	res.Err = lastErr
	return res
}

// canHalve reports whether text may be halved once more.
func (c *Client) canHalve(text string, halvings int) bool {
	if halvings >= c.maxHalvings {
		return false
	}
	return textclean.Len(text)/2 >= c.minHalvingLength
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case ai.IsServerError(err):
		return metrics.OutcomeServerError
	case ai.IsUnreachable(err):
		return metrics.OutcomeUnreachable
	default:
		return metrics.OutcomeError
	}
}
