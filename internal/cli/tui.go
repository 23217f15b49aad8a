package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/newton/pkg/pipeline"
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	warmUpStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

const barWidth = 30

// passMsg reports a finished pass.
type passMsg pipeline.PassResult

// benchDoneMsg ends the benchmark.
type benchDoneMsg struct {
	result *pipeline.BenchResult
	err    error
}

// BenchModel is the bubbletea model for the live benchmark view.
type BenchModel struct {
	N          int
	Strategies int
	PassesEach int
	Passes     []pipeline.PassResult
	Result     *pipeline.BenchResult
	Err        error
	Cancelled  bool

	cancel context.CancelFunc
}

// NewBenchModel creates a model expecting passes passes of each strategy.
func NewBenchModel(n, strategies, passes int, cancel context.CancelFunc) BenchModel {
	return BenchModel{N: n, Strategies: strategies, PassesEach: passes, cancel: cancel}
}

func (m BenchModel) Init() tea.Cmd {
	return nil
}

func (m BenchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case passMsg:
		m.Passes = append(m.Passes, pipeline.PassResult(msg))
	case benchDoneMsg:
		m.Result, m.Err = msg.result, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m BenchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Benchmark %d×%d", m.N, m.N)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	total := m.Strategies * m.PassesEach
	b.WriteString(progressBar(len(m.Passes), total))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d passes", len(m.Passes), total)))
	b.WriteString("\n\n")

	start := max(0, len(m.Passes)-10)
	for _, p := range m.Passes[start:] {
		line := fmt.Sprintf("  %-12s #%-3d %10s  %8.1f MPix/s", p.Strategy, p.Pass+1, p.Duration.Round(time.Microsecond), p.MPixels)
		if p.WarmUp {
			b.WriteString(warmUpStyle.Render(line + "  warm-up"))
		} else {
			b.WriteString(StyleValue.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// progressBar draws done of total as a fixed-width bar.
func progressBar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = min(barWidth, done*barWidth/total)
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// runBenchTUI runs the benchmark in the background while a bubbletea
// program shows its passes.
func runBenchTUI(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options, bopts pipeline.BenchOptions) (*pipeline.BenchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := popts.ValidateForCompute(); err != nil {
		return nil, err
	}
	model := NewBenchModel(popts.Grid.N, len(bopts.Strategies), bopts.Passes, cancel)
	prog := tea.NewProgram(model)

	bopts.Progress = func(p pipeline.PassResult) { prog.Send(passMsg(p)) }
	go func() {
		result, err := runner.Benchmark(ctx, popts, bopts)
		prog.Send(benchDoneMsg{result: result, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	m := final.(BenchModel)
	if m.Cancelled {
		return nil, context.Canceled
	}
	return m.Result, m.Err
}
