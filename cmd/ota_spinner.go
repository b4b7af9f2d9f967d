package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/arbor-gateway/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type transmitProgressMsg struct {
	sent  int
	total int
}

type transmitDoneMsg struct {
	err error
}

type transmitSpinnerModel struct {
	spinner  spinner.Model
	label    string
	sent     int
	total    int
	transmit tea.Cmd
	err      error
	done     bool
}

func newTransmitSpinnerModel(label string, total int, transmit tea.Cmd) transmitSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return transmitSpinnerModel{
		spinner:  s,
		label:    label,
		total:    total,
		transmit: transmit,
	}
}

func (m transmitSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.transmit)
}

func (m transmitSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case transmitProgressMsg:
		m.sent = msg.sent
		m.total = msg.total
		return m, nil
	case transmitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m transmitSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s %d/%d", m.spinner.View(), m.label, m.sent, m.total)
}

func runTransmitSpinner(ctx context.Context, output io.Writer, total int, transmit func(context.Context, application.Progress) error) error {
	var p *tea.Program
	transmitCmd := func() tea.Msg {
		return transmitDoneMsg{err: transmit(ctx, func(sent, total int) {
			p.Send(transmitProgressMsg{sent: sent, total: total})
		})}
	}

	p = tea.NewProgram(
		newTransmitSpinnerModel("Sending chunks", total, transmitCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(transmitSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
