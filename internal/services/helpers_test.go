package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/queue"
)

var truth = cosinor.Params{H: 500, B: 150, V: 2, P: 24}

// sampleSeries samples the truth model every half hour over four days
func sampleSeries() analytics.Series {
	var s analytics.Series
	for i := 0; i < 192; i++ {
		t := 0.1 + 0.5*float64(i)
		s.Time = append(s.Time, t)
		s.Data = append(s.Data, cosinor.Eval(truth, t))
	}
	return s
}

// goodGuess converges quickly onto truth
func goodGuess() map[string]string {
	return map[string]string{"h": "450", "b": "140", "v": "1.5", "p": "23"}
}

// syncBuffer is a bytes.Buffer safe for the notifier goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// failingPublisher rejects every message
type failingPublisher struct {
	mu       sync.Mutex
	attempts int
}

func (p *failingPublisher) Publish(context.Context, queue.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	return errors.New("broker unavailable")
}

func (p *failingPublisher) Close() error { return nil }

// newTestService wires a service to an in-memory queue and returns the
// channel receiving decoded events
func newTestService(t *testing.T, compression string) (*AnalysisService, *Notifier, <-chan *AnalysisEvent) {
	t.Helper()

	eventsCfg := config.EventsConfig{Enabled: true, Type: "memory", Subject: "cosinor.runs", Compression: compression}
	q, err := queue.NewQueue(eventsCfg)
	require.NoError(t, err)

	events := make(chan *AnalysisEvent, 16)
	require.NoError(t, q.Subscribe(eventsCfg.Subject, func(msg queue.Message) error {
		ev, err := DecodeEvent(msg)
		if err != nil {
			return err
		}
		events <- ev
		return nil
	}))

	logger := logging.NewWithWriter(&syncBuffer{}, zerolog.DebugLevel)
	notifier, err := NewNotifier(q, eventsCfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = notifier.Close() })

	svc, err := NewAnalysisService(logger, config.DefaultConfig().Analysis, config.DefaultConfig().Ingest, notifier)
	require.NoError(t, err)
	return svc, notifier, events
}
