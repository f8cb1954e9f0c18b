package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/loggerhead/zaw/conduit"
	"github.com/loggerhead/zaw/config"
	"github.com/loggerhead/zaw/engine"
	"github.com/loggerhead/zaw/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	cfg      *config.RunnerConfig
	eng      *engine.Engine
	instance *runtime.Instance
	closer   func()
	result   string
	logs     []string
	logChan  chan string
	ops      []string
	input    textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputArg
	stateShowResult
)

func newInteractiveModel(cfg *config.RunnerConfig) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		state: stateSelectOp,
	}
}

type loadedMsg struct {
	err      error
	eng      *engine.Engine
	instance *runtime.Instance
	closer   func()
	logs     chan string
	ops      []string
}

type callResultMsg struct {
	err    error
	result string
}

type moduleLogMsg string

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *interactiveModel) loadModule() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.cfg.ModulePath)
	if err != nil {
		return loadedMsg{err: err}
	}

	eng, err := engine.New(ctx, &engine.Config{
		MemoryLimitPages: m.cfg.Engine.MemoryLimitPages,
		Logger:           zap.NewNop(),
	})
	if err != nil {
		return loadedMsg{err: err}
	}

	mod, err := eng.Load(ctx, data)
	if err != nil {
		eng.Close(ctx)
		return loadedMsg{err: err}
	}

	inst, err := mod.Instantiate(ctx, engine.InstanceConfig{})
	if err != nil {
		eng.Close(ctx)
		return loadedMsg{err: err}
	}

	logs := make(chan string, 64)
	boot, err := runtime.NewInstance(ctx, inst, runtime.Config{
		InputSize:    m.cfg.Channel.InputSize,
		OutputSize:   m.cfg.Channel.OutputSize,
		MaxLogSize:   m.cfg.Channel.MaxLogSize,
		MaxErrorSize: m.cfg.Channel.MaxErrorSize,
		InitialPages: m.cfg.Channel.InitialPages,
		LogSink: func(msg string) {
			select {
			case logs <- msg:
			default:
			}
		},
	})
	if err != nil {
		inst.Close(ctx)
		eng.Close(ctx)
		return loadedMsg{err: err}
	}

	return loadedMsg{
		eng:      eng,
		instance: boot,
		logs:     logs,
		ops:      listOps(mod.ExportNames()),
		closer: func() {
			inst.Close(ctx)
			eng.Close(ctx)
		},
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArg && msg.String() == "q" {
				break
			}
			if m.closer != nil {
				m.closer()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(m.ops)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				if len(m.ops) == 0 {
					break
				}
				m.prepareInput()
				m.state = stateInputArg

			case stateInputArg:
				return m, m.callOp

			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputArg:
				m.state = stateSelectOp
			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.eng = msg.eng
		m.instance = msg.instance
		m.ops = msg.ops
		m.closer = msg.closer
		m.logChan = msg.logs
		return m, m.waitForLog

	case moduleLogMsg:
		m.logs = append(m.logs, string(msg))
		if len(m.logs) > 8 {
			m.logs = m.logs[len(m.logs)-8:]
		}
		return m, m.waitForLog

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArg {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = "string payload (optional)"
	ti.Prompt = "arg: "
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) waitForLog() tea.Msg {
	return moduleLogMsg(<-m.logChan)
}

func (m *interactiveModel) callOp() tea.Msg {
	ctx := context.Background()

	op := m.ops[m.selected]
	arg := m.input.Value()

	call := runtime.Bind(m.instance, op,
		func(w *conduit.Writer, s string) error {
			if s == "" {
				return nil
			}
			return w.WriteString(s)
		},
		func(r *conduit.Reader, _ string) (string, error) {
			return r.ReadString()
		})

	result, err := call(ctx, arg)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: result}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.instance == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("zaw runner"))
	b.WriteString(" ")
	b.WriteString(m.cfg.ModulePath)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		if len(m.ops) == 0 {
			b.WriteString("Module exports no callable operations.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select an operation to call:\n\n")
		for i, op := range m.ops {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + op))
			} else {
				b.WriteString(cursor + opStyle.Render(op))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArg:
		b.WriteString(fmt.Sprintf("Calling %s\n\n", opStyle.Render(m.ops[m.selected])))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(m.ops[m.selected])))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(fmt.Sprintf("%q", m.result)))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	if len(m.logs) > 0 {
		b.WriteString("\n\nModule log:\n")
		for _, line := range m.logs {
			b.WriteString(logStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func runInteractive(cfg *config.RunnerConfig) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
