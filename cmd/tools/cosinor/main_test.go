package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/cosinor/internal/analytics/cosinor"
	"github.com/soltixdb/cosinor/internal/compression"
	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/queue"
	"github.com/soltixdb/cosinor/internal/services"
)

var guessArgs = []string{"--h", "450", "--b", "140", "--v", "1.5", "--p", "23"}

// writeCSV samples h=500 b=150 v=2 p=24 every half hour over four days
func writeCSV(t *testing.T) string {
	t.Helper()
	truth := cosinor.Params{H: 500, B: 150, V: 2, P: 24}

	var sb strings.Builder
	sb.WriteString("time,value\n")
	for i := 0; i < 192; i++ {
		x := 0.1 + 0.5*float64(i)
		fmt.Fprintf(&sb, "%g,%g\n", x, cosinor.Eval(truth, x))
	}
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func execute(args ...string) (string, string, error) {
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyze_Text(t *testing.T) {
	path := writeCSV(t)

	out, _, err := execute(append([]string{"analyze", path}, guessArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Number of Mesor Crossings = 8")
	assert.Contains(t, out, "On-Off AUC:")
	assert.Contains(t, out, "p = 24.0000")
}

func TestAnalyze_JSON(t *testing.T) {
	path := writeCSV(t)

	out, _, err := execute(append([]string{"analyze", path, "--json", "--loss", "soft_l1"}, guessArgs...)...)
	require.NoError(t, err)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "cosinor", resp["analysis"])
	assert.EqualValues(t, 192, resp["samples"])
	assert.NotEmpty(t, resp["run_id"])
	assert.NotEmpty(t, resp["curve"])
	assert.Contains(t, resp["text"], "Mesor")
}

func TestAnalyze_Bounds(t *testing.T) {
	path := writeCSV(t)

	out, _, err := execute("analyze", path, "--json",
		"--h", "450", "--b", "280", "--v", "1.5", "--p", "23",
		"--bounds-lower", "-inf,250,-inf,-inf", "--bounds-upper", "inf, 300, inf, inf")
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Params cosinor.Params `json:"params"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.InDelta(t, 250, resp.Result.Params.B, 1e-6)
}

func TestAnalyze_Errors(t *testing.T) {
	path := writeCSV(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no file", []string{"analyze"}, "accepts 1 arg"},
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "none.csv")}, "no such file"},
		{"short bounds", []string{"analyze", path, "--bounds-lower", "0,0"}, "bounds-lower: expected 4"},
		{"bad guess", []string{"analyze", path, "--h", "abc"}, services.CodeInvalidInput},
		{"fit failure", []string{"analyze", path, "--h", "100", "--b", "900", "--v", "7", "--p", "20",
			"--max-nfev", "2", "--bounds-lower", "-inf,600,-inf,-inf"}, services.CodeFitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyze_UnsupportedSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,1\n1,2\n"), 0o600))

	_, _, err := execute("analyze", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), services.CodeInvalidSpreadsheet)
}

func TestBoundValues(t *testing.T) {
	values := map[string]string{}
	require.NoError(t, boundValues(values, "_lower", "0, 1,2 ,inf"))
	assert.Equal(t, map[string]string{"h_lower": "0", "b_lower": "1", "v_lower": "2", "p_lower": "inf"}, values)

	require.NoError(t, boundValues(values, "_upper", ""))
	assert.Len(t, values, 4)

	assert.Error(t, boundValues(values, "_upper", "1,2,3,4,5"))
}

// lockedBuffer guards writes from the subscriber goroutine
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchEvents(t *testing.T) {
	cfg := config.EventsConfig{Type: "memory", Subject: "cosinor.runs", Compression: "zstd"}
	q, err := queue.NewQueue(cfg)
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	cmd := watchCmd()
	out := &lockedBuffer{}
	errOut := &lockedBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchEvents(ctx, cmd, q, cfg.Subject) }()

	c, err := compression.ForName(cfg.Compression)
	require.NoError(t, err)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, err := services.EncodeEvent(services.AnalysisEvent{
		RunID: "run-1", Analysis: "cosinor", Samples: 192, R2: 1,
		Params: &cosinor.Params{H: 500, B: 150, V: 2, P: 24}, Crossings: 8, Intervals: 3,
		DurationMS: 12, Timestamp: ts,
	}, c)
	require.NoError(t, err)
	ok.Subject = cfg.Subject

	failed, err := services.EncodeEvent(services.AnalysisEvent{
		RunID: "run-2", Analysis: "cosinor", Samples: 3,
		Error: "fit failed", ErrorCode: services.CodeFitFailed, Timestamp: ts,
	}, c)
	require.NoError(t, err)
	failed.Subject = cfg.Subject

	garbage := queue.Message{Subject: cfg.Subject, Data: []byte("not json"), Encoding: "zstd"}

	for _, msg := range []queue.Message{ok, failed, garbage} {
		require.NoError(t, q.Publish(context.Background(), msg))
	}

	require.Eventually(t, func() bool {
		return strings.Count(out.String(), "\n") == 2 && errOut.String() != ""
	}, 2*time.Second, 10*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "2026-03-01T12:00:00Z run-1 cosinor n=192 r2=1.0000 crossings=8 intervals=3 12ms h = 500.0000, b = 150.0000, v = 2.0000, p = 24.0000", lines[0])
	assert.Equal(t, "2026-03-01T12:00:00Z run-2 cosinor n=3 FAILED FIT_FAILED: fit failed", lines[1])
	assert.Contains(t, errOut.String(), "skipping undecodable event")

	cancel()
	require.NoError(t, <-done)
}
