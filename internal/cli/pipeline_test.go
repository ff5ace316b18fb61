package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/report"
	"github.com/rileyhilliard/sysinsight/internal/scan"
	"github.com/rileyhilliard/sysinsight/internal/snapshot"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

// stubSource returns canned records; categories in fail return COLLECT errors.
type stubSource struct {
	fail  map[string]bool
	calls int
}

func (s *stubSource) err(category string) error {
	s.calls++
	if s.fail[category] {
		return errors.New(errors.ErrCollect, "No "+category+" data", "")
	}
	return nil
}

func (s *stubSource) CPU(context.Context) (snapshot.CPU, error) {
	return snapshot.CPU{UsagePercent: 97.5, LogicalCores: 4}, s.err(config.CategoryCPU)
}

func (s *stubSource) Memory(context.Context) (snapshot.Memory, error) {
	return snapshot.Memory{Total: 8 << 30, Available: 4 << 30}, s.err(config.CategoryMemory)
}

func (s *stubSource) Disk(context.Context) (snapshot.Disk, error) {
	return snapshot.Disk{Path: "/"}, s.err(config.CategoryDisk)
}

func (s *stubSource) Network(context.Context) (snapshot.Network, error) {
	return snapshot.Network{}, s.err(config.CategoryNetwork)
}

func (s *stubSource) Sensors(context.Context) (snapshot.Sensors, error) {
	return snapshot.Sensors{}, s.err(config.CategorySensors)
}

func (s *stubSource) GPU(context.Context) (snapshot.GPU, error) {
	return snapshot.GPU{}, s.err(config.CategoryGPU)
}

func (s *stubSource) Host(context.Context) (snapshot.Host, error) {
	return snapshot.Host{Hostname: "testbox"}, s.err(config.CategoryHost)
}

// stubAsker records questions and replies with a fixed answer or error.
type stubAsker struct {
	answer    string
	err       error
	questions []string
}

func (a *stubAsker) Ask(ctx context.Context, doc report.Document, question string, onDelta func(string)) (string, error) {
	a.questions = append(a.questions, question)
	if a.err != nil {
		return "", a.err
	}
	onDelta(a.answer)
	return a.answer, nil
}

type testPipeline struct {
	*pipeline
	src    *stubSource
	asker  *stubAsker
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()
	ui.DisableColors()

	cfg := config.DefaultConfig()
	cfg.Collectors.Enabled = []string{config.CategoryCPU, config.CategoryMemory, config.CategoryHost}
	cfg.Scan.ResolveMAC = false
	cfg.Output.Width = 100

	tp := &testPipeline{
		src:    &stubSource{fail: map[string]bool{}},
		asker:  &stubAsker{answer: "Your CPU is **busy**."},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	tp.pipeline = &pipeline{
		cfg:    cfg,
		source: tp.src,
		prober: scan.ProberFunc(func(ctx context.Context, addr netip.Addr) scan.Result {
			if addr == netip.MustParseAddr("10.0.0.1") {
				return scan.Result{Alive: true, Port: 22, Latency: 2 * time.Millisecond}
			}
			return scan.Result{}
		}),
		stdout: tp.stdout,
		stderr: tp.stderr,
		log:    logger.Noop(),
		newAsker: func(config.AssistantConfig, logger.Logger) (asker, error) {
			return tp.asker, nil
		},
		now: func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) },
	}
	return tp
}

func TestPipelineRun_RendersReport(t *testing.T) {
	tp := newTestPipeline(t)

	require.NoError(t, tp.run(context.Background(), reportOptions{}))

	out := tp.stdout.String()
	assert.Contains(t, out, "testbox")
	assert.Contains(t, out, "High CPU usage detected: 97.5%")
	assert.NotContains(t, out, "Live hosts")

	progress := tp.stderr.String()
	assert.Contains(t, progress, "cpu")
	assert.Contains(t, progress, "(disabled)")
	assert.Equal(t, 3, tp.src.calls)
}

func TestPipelineRun_QuietSuppressesProgress(t *testing.T) {
	tp := newTestPipeline(t)
	tp.quiet = true

	require.NoError(t, tp.run(context.Background(), reportOptions{}))
	assert.Empty(t, tp.stderr.String())
	assert.NotEmpty(t, tp.stdout.String())
}

func TestPipelineRun_FailedCategoryIsNotFatal(t *testing.T) {
	tp := newTestPipeline(t)
	tp.src.fail[config.CategoryMemory] = true

	require.NoError(t, tp.run(context.Background(), reportOptions{}))
	assert.Contains(t, tp.stderr.String(), "No memory data")
	assert.Contains(t, tp.stdout.String(), "unavailable")
}

func TestPipelineRun_EveryCategoryFailed(t *testing.T) {
	tp := newTestPipeline(t)
	for _, category := range config.AllCategories {
		tp.src.fail[category] = true
	}

	err := tp.run(context.Background(), reportOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Empty(t, tp.stdout.String())
}

func TestPipelineRun_InvalidSubnetFailsBeforeCollecting(t *testing.T) {
	tests := []struct {
		name   string
		subnet string
	}{
		{"not a cidr", "not-a-subnet"},
		{"too many hosts", "10.0.0.0/8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := newTestPipeline(t)

			err := tp.run(context.Background(), reportOptions{Subnet: tt.subnet})
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
			assert.Zero(t, tp.src.calls)
		})
	}
}

func TestPipelineRun_ScanJSON(t *testing.T) {
	tp := newTestPipeline(t)

	require.NoError(t, tp.run(context.Background(), reportOptions{Subnet: "10.0.0.0/30", JSON: true}))

	doc, err := report.Decode(tp.stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/30", doc.Subnet)
	require.Len(t, doc.Hosts, 1)
	assert.Equal(t, "10.0.0.1", doc.Hosts[0].IP)
	assert.Equal(t, 22, doc.Hosts[0].Port)
	assert.Equal(t, "testbox", doc.Host.Data.Hostname)
	assert.NotEmpty(t, doc.Insights)
}

func TestPipelineRun_ScanRendersHosts(t *testing.T) {
	tp := newTestPipeline(t)

	require.NoError(t, tp.run(context.Background(), reportOptions{Subnet: "10.0.0.0/30"}))
	out := tp.stdout.String()
	assert.Contains(t, out, "Live hosts 10.0.0.0/30")
	assert.Contains(t, out, "10.0.0.1")
	assert.NotContains(t, out, "10.0.0.2")
}

func TestPipelineRun_Export(t *testing.T) {
	tp := newTestPipeline(t)
	path := filepath.Join(t.TempDir(), "report.json.zst")

	require.NoError(t, tp.run(context.Background(), reportOptions{Export: path}))

	doc, err := report.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testbox", doc.Host.Data.Hostname)
	assert.Contains(t, tp.stderr.String(), "Exported to "+path)
}

func TestPipelineRun_ExportFailureIsNotFatal(t *testing.T) {
	tp := newTestPipeline(t)
	path := filepath.Join(t.TempDir(), "missing", "dir", "report.json")

	require.NoError(t, tp.run(context.Background(), reportOptions{Export: path}))

	assert.Contains(t, tp.stderr.String(), "Couldn't write export to "+path)
	assert.Contains(t, tp.stdout.String(), "testbox")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineRun_Query(t *testing.T) {
	tp := newTestPipeline(t)

	require.NoError(t, tp.run(context.Background(), reportOptions{Query: "Why so busy?"}))

	assert.Equal(t, []string{"Why so busy?"}, tp.asker.questions)
	assert.Contains(t, tp.stdout.String(), "busy")
}

func TestPipelineRun_JSONWithQueryKeepsOneDocument(t *testing.T) {
	tp := newTestPipeline(t)
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, tp.run(context.Background(), reportOptions{JSON: true, Query: "why?", Export: path}))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(tp.stdout.Bytes(), &raw))

	doc, err := report.Decode(tp.stdout.Bytes())
	require.NoError(t, err)
	require.NotNil(t, doc.Answer)
	assert.Equal(t, "why?", doc.Answer.Question)
	assert.Equal(t, "Your CPU is **busy**.", doc.Answer.Text)

	saved, err := report.Load(path)
	require.NoError(t, err)
	require.NotNil(t, saved.Answer)
	assert.Equal(t, "why?", saved.Answer.Question)
}

func TestPipelineRun_JSONWithFailedQuery(t *testing.T) {
	tp := newTestPipeline(t)
	tp.asker.err = errors.NewRemote(500, fmt.Errorf("boom"), "Language model request failed with HTTP 500", "")

	require.NoError(t, tp.run(context.Background(), reportOptions{JSON: true, Query: "why?"}))

	doc, err := report.Decode(tp.stdout.Bytes())
	require.NoError(t, err)
	assert.Nil(t, doc.Answer)
	assert.Contains(t, tp.stderr.String(), "HTTP 500")
}

func TestPipelineRun_QueryFailuresAreNotFatal(t *testing.T) {
	tests := []struct {
		name     string
		newAsker func(config.AssistantConfig, logger.Logger) (asker, error)
		askErr   error
		want     string
	}{
		{
			name: "missing credentials",
			newAsker: func(cfg config.AssistantConfig, _ logger.Logger) (asker, error) {
				return nil, config.RequireCredentials(cfg)
			},
			want: "No language model API key configured",
		},
		{
			name:   "remote failure",
			askErr: errors.NewRemote(503, fmt.Errorf("overloaded"), "Language model request failed with HTTP 503", ""),
			want:   "HTTP 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := newTestPipeline(t)
			tp.asker.err = tt.askErr
			if tt.newAsker != nil {
				tp.newAsker = tt.newAsker
			}

			require.NoError(t, tp.run(context.Background(), reportOptions{Query: "anything"}))
			assert.Contains(t, tp.stderr.String(), tt.want)
			assert.Contains(t, tp.stdout.String(), "testbox")
		})
	}
}

func TestPipelineAsk_OneShot(t *testing.T) {
	tp := newTestPipeline(t)

	require.NoError(t, tp.ask(context.Background(), askOptions{Question: "Is memory OK?"}))
	assert.Equal(t, []string{"Is memory OK?"}, tp.asker.questions)
	assert.Contains(t, tp.stdout.String(), "busy")
}

func TestPipelineAsk_Interactive(t *testing.T) {
	tp := newTestPipeline(t)
	script := []string{"first", "", "second"}

	err := tp.ask(context.Background(), askOptions{
		interactive: true,
		prompt: func() (string, error) {
			if len(script) == 0 {
				return "", ui.ErrPromptClosed
			}
			q := script[0]
			script = script[1:]
			return q, nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, tp.asker.questions)
	assert.Equal(t, 3, tp.src.calls, "collects once for the whole session")
}

func TestPipelineAsk_RemoteErrorKeepsLoopGoing(t *testing.T) {
	tp := newTestPipeline(t)
	tp.asker.err = errors.NewRemote(429, nil, "Language model request failed with HTTP 429", "")
	asked := 0

	err := tp.ask(context.Background(), askOptions{
		interactive: true,
		prompt: func() (string, error) {
			asked++
			if asked > 2 {
				return "", ui.ErrPromptClosed
			}
			return "again?", nil
		},
	})

	require.NoError(t, err)
	assert.Len(t, tp.asker.questions, 2)
	assert.Contains(t, tp.stderr.String(), "HTTP 429")
}

func TestPipelineAsk_Errors(t *testing.T) {
	tests := []struct {
		name  string
		opts  askOptions
		setup func(tp *testPipeline)
	}{
		{
			name: "no question without a terminal",
			opts: askOptions{},
		},
		{
			name: "missing credentials",
			opts: askOptions{Question: "hi"},
			setup: func(tp *testPipeline) {
				tp.newAsker = func(cfg config.AssistantConfig, _ logger.Logger) (asker, error) {
					return nil, config.RequireCredentials(cfg)
				}
			},
		},
		{
			name: "unreadable export",
			opts: askOptions{Question: "hi", From: "/nonexistent/report.json"},
		},
		{
			name: "bad subnet",
			opts: askOptions{Question: "hi", Subnet: "nope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := newTestPipeline(t)
			if tt.setup != nil {
				tt.setup(tp)
			}

			err := tp.ask(context.Background(), tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
			assert.Empty(t, tp.asker.questions)
		})
	}
}

func TestPipelineAsk_FromExport(t *testing.T) {
	tp := newTestPipeline(t)
	path := filepath.Join(t.TempDir(), "saved.json")
	snap := snapshot.New(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	snap.Host = snapshot.Available(snapshot.Host{Hostname: "saved-box"})
	require.NoError(t, report.Export(path, report.NewDocument(snap, nil, "test")))

	require.NoError(t, tp.ask(context.Background(), askOptions{Question: "What was it?", From: path}))
	assert.Zero(t, tp.src.calls)
	assert.Equal(t, []string{"What was it?"}, tp.asker.questions)
}
