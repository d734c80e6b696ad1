// Package fanout dispatches one payload to many endpoints concurrently,
// settling all sends and collecting every outcome. A failing endpoint never
// aborts or blocks delivery to the others.
package fanout

import (
	"context"
	"errors"
	"sync"

	"fatepack/internal/notification/models"
	"fatepack/internal/notification/transport"
)

// Dispatcher runs settle-all fan-outs over a transport.
type Dispatcher struct {
	transport transport.Transport
}

func New(t transport.Transport) *Dispatcher {
	return &Dispatcher{transport: t}
}

// Notify pushes payload to every endpoint concurrently. It only returns an
// error when the payload itself is invalid; transport failures are contained
// in the result, gone endpoints flagged for the caller to prune.
func (d *Dispatcher) Notify(ctx context.Context, endpoints []*models.Endpoint, payload models.Payload) (models.FanoutResult, error) {
	if err := payload.Validate(); err != nil {
		return models.FanoutResult{}, err
	}

	outcomes := make([]models.EndpointOutcome, len(endpoints))
	var wg sync.WaitGroup
	for i, endpoint := range endpoints {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := models.EndpointOutcome{EndpointID: endpoint.ID}
			if err := d.transport.Push(ctx, endpoint, payload); err != nil {
				outcome.Error = err.Error()
				outcome.Gone = errors.Is(err, transport.ErrEndpointGone)
			} else {
				outcome.OK = true
			}
			outcomes[i] = outcome
		}()
	}
	wg.Wait()

	result := models.FanoutResult{PerEndpoint: outcomes}
	for _, outcome := range outcomes {
		if outcome.OK {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	return result, nil
}
