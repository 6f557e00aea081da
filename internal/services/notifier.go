package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
	"github.com/soltixdb/cosinor/internal/compression"
	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/queue"
	"github.com/soltixdb/cosinor/internal/utils"
)

// AnalysisEvent is the notification published after every run
type AnalysisEvent struct {
	RunID      string          `json:"run_id"`
	Analysis   string          `json:"analysis"`
	Samples    int             `json:"samples"`
	Digest     string          `json:"digest"`
	Status     int             `json:"status"`
	Params     *cosinor.Params `json:"params,omitempty"`
	R2         float64         `json:"r2"`
	Crossings  int             `json:"crossings"`
	Intervals  int             `json:"intervals"`
	Error      string          `json:"error,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Succeeded reports whether the run produced a result
func (e *AnalysisEvent) Succeeded() bool {
	return e.Error == ""
}

// Notifier publishes AnalysisEvents in the background. Publish failures are
// logged and never reach the caller.
type Notifier struct {
	publisher  queue.Publisher
	compressor compression.Compressor
	subject    string
	logger     *logging.Logger
	wg         sync.WaitGroup
}

// NewNotifier wraps a publisher with the configured subject and compression
func NewNotifier(publisher queue.Publisher, cfg config.EventsConfig, logger *logging.Logger) (*Notifier, error) {
	compressor, err := compression.ForName(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("events subject is required")
	}
	return &Notifier{
		publisher:  publisher,
		compressor: compressor,
		subject:    cfg.Subject,
		logger:     logger,
	}, nil
}

// EncodeEvent serializes ev and compresses it with c
func EncodeEvent(ev AnalysisEvent, c compression.Compressor) (queue.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return queue.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := queue.Message{Data: data}
	if c.Algorithm() != compression.None {
		if msg.Data, err = c.Compress(data); err != nil {
			return queue.Message{}, err
		}
		msg.Encoding = c.Algorithm().String()
	}
	return msg, nil
}

// DecodeEvent reverses EncodeEvent using the message's encoding header
func DecodeEvent(msg queue.Message) (*AnalysisEvent, error) {
	c, err := compression.ForName(msg.Encoding)
	if err != nil {
		return nil, err
	}
	data, err := c.Decompress(msg.Data)
	if err != nil {
		return nil, err
	}
	var ev AnalysisEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &ev, nil
}

// Notify publishes ev asynchronously
func (n *Notifier) Notify(ev AnalysisEvent) {
	msg, err := EncodeEvent(ev, n.compressor)
	if err != nil {
		n.logger.Warn("Failed to encode analysis event", "run_id", ev.RunID, "error", err)
		return
	}
	msg.Subject = n.subject

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.publish(ev.RunID, msg)
	}()
}

func (n *Notifier) publish(runID string, msg queue.Message) {
	var err error
	for attempt := 1; attempt <= utils.DefaultMaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), utils.EventPublishTimeout)
		err = n.publisher.Publish(ctx, msg)
		cancel()
		if err == nil {
			n.logger.Debug("Published analysis event", "run_id", runID, "subject", msg.Subject, "bytes", len(msg.Data))
			return
		}
		time.Sleep(time.Duration(attempt) * utils.DefaultRetryBackoff)
	}
	n.logger.Warn("Failed to publish analysis event",
		"run_id", runID,
		"subject", msg.Subject,
		"attempts", utils.DefaultMaxRetries,
		"error", err)
}

// Flush waits for in-flight publishes
func (n *Notifier) Flush() {
	n.wg.Wait()
}

// Close flushes and closes the publisher
func (n *Notifier) Close() error {
	n.Flush()
	return n.publisher.Close()
}
