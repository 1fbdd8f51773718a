package imagegen

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"
)

// poll fetches the job result until it leaves the pending state. A 202 waits one
// interval and polls again; any other 2xx is terminal. The caller's context is checked at
// every poll boundary and the total time is bounded by the configured timeout.
func (c *Client) poll(ctx context.Context, job *AsyncJob) (*response, error) {
	path := "results/" + job.ID
	log := c.logger.With(zap.String("job_id", job.ID))

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Debug("Polling generation result", zap.Int("attempt", attempt))
		resp, err := c.get(ctx, path)
		if err != nil {
			c.metrics.RecordPoll("error")
			return nil, err
		}
		if resp.status != http.StatusAccepted {
			c.metrics.RecordPoll("done")
			log.Info("Generation job finished", zap.Int("attempts", attempt))
			return resp, nil
		}
		c.metrics.RecordPoll("pending")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(c.cfg.PollInterval):
		}

		if c.clock.Now().Sub(job.CreatedAt) > c.cfg.PollTimeout {
			log.Warn("Generation job timed out", zap.Int("attempts", attempt))
			return nil, apperrors.TimedOut(path, c.cfg.PollTimeout)
		}
	}
}
