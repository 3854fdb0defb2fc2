// Package tui runs the live capture view.
package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialcap/internal/capture"
	"github.com/allbin/serialcap/internal/tui/components"
	"github.com/allbin/serialcap/internal/tui/models"
)

// Program couples the capture view with a capture running in the background
type Program struct {
	program *tea.Program
	cancel  context.CancelFunc
}

// New builds the view. cancel is called when the operator quits so the
// background capture stops at its next read.
func New(info components.CaptureInfo, stats *capture.Stats, cancel context.CancelFunc, opts ...tea.ProgramOption) *Program {
	model := models.NewCaptureModel(info, stats, cancel)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	}
	return &Program{
		program: tea.NewProgram(model, opts...),
		cancel:  cancel,
	}
}

// Sink forwards records to the view
func (p *Program) Sink() capture.Sink {
	return capture.SinkFunc(func(rec capture.Record) error {
		p.program.Send(models.RecordMsg{Record: rec})
		return nil
	})
}

// LogWriter shows log output inside the view instead of on the terminal it owns
func (p *Program) LogWriter() io.Writer {
	return logWriter{p.program}
}

// Started tells the view that the capture window has opened
func (p *Program) Started(w capture.Window) {
	p.program.Send(models.StartedMsg{Window: w})
}

type result struct {
	summary capture.Summary
	err     error
}

// Run shows the view while work runs on another goroutine. It returns once
// both the view has exited and work has finished.
func (p *Program) Run(work func() (capture.Summary, error)) (capture.Summary, error) {
	done := make(chan result, 1)
	go func() {
		summary, err := work()
		p.program.Send(models.DoneMsg{Summary: summary, Err: err})
		done <- result{summary, err}
	}()

	_, uiErr := p.program.Run()
	p.cancel()

	res := <-done
	if res.err == nil && uiErr != nil {
		return res.summary, uiErr
	}
	return res.summary, res.err
}

type logWriter struct {
	program *tea.Program
}

func (w logWriter) Write(b []byte) (int, error) {
	w.program.Send(models.LogMsg{Line: string(b)})
	return len(b), nil
}
