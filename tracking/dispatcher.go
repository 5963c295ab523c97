// Package tracking envia eventos para a ingestão do parceiro sem bloquear a
// request do usuário. Falhas só aparecem no log.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"site-edge/middleware/ratelimit/application"
	"site-edge/middleware/ratelimit/infra"
	"site-edge/osclient"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sender é o lado de saída (osclient.Client).
type Sender interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

type Job struct {
	ID     string
	Method string
	Path   string
	Body   any
}

type Options struct {
	// Concurrency limita jobs em voo; <= 0 usa 8.
	Concurrency int
	// Timeout de cada job, incluindo a espera por vaga.
	Timeout time.Duration
}

type Dispatcher struct {
	sender  Sender
	slots   application.ConcurrencyService
	timeout time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewDispatcher(sender Sender, opts Options) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		slots:   application.ConcurrencyService{Pool: infra.NewChanPool(opts.Concurrency)},
		timeout: opts.Timeout,
	}
}

// Dispatch agenda o job e retorna na hora. false quando o job foi descartado
// (dispatcher fechado ou sem sender).
func (d *Dispatcher) Dispatch(job Job) bool {
	if d.sender == nil {
		d.dropped.Add(1)
		log.Debug().Str("path", job.Path).Msg("tracking job dropped, no sender configured")
		return false
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.dropped.Add(1)
		log.Debug().Str("job_id", job.ID).Str("path", job.Path).Msg("tracking job dropped, dispatcher closed")
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.run(job)
	}()
	return true
}

func (d *Dispatcher) run(job Job) {
	// contexto próprio: o job não morre junto com a request que o criou
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	release, ok := d.slots.Acquire(ctx)
	if !ok {
		d.dropped.Add(1)
		log.Warn().Str("job_id", job.ID).Str("path", job.Path).Msg("tracking job dropped, no slot before timeout")
		return
	}
	defer release()

	_, err := d.sender.Request(ctx, job.Method, job.Path, job.Body)
	if err != nil {
		d.failed.Add(1)
		ev := log.Error().Err(err).Str("job_id", job.ID).Str("method", job.Method).Str("path", job.Path)
		var re *osclient.RequestError
		if errors.As(err, &re) {
			ev = ev.Int("status", re.Status)
		}
		ev.Msg("tracking ingestion failed")
		return
	}
	d.sent.Add(1)
	log.Debug().Str("job_id", job.ID).Str("path", job.Path).Msg("tracking ingestion sent")
}

// Close para de aceitar jobs e espera os que estão em voo até ctx encerrar.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Stats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

func (d *Dispatcher) Stats() Stats {
	return Stats{Sent: d.sent.Load(), Failed: d.failed.Load(), Dropped: d.dropped.Load()}
}
