package dashboard

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run listens on addr and runs the dashboard until the user quits or ctx is
// done.
func Run(ctx context.Context, addr string) error {
	stats := NewStats(DefaultHistory)
	l, err := Listen(addr, stats)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenErr := make(chan error, 1)
	go func() { listenErr <- l.Run(ctx) }()

	p := tea.NewProgram(NewModel(stats, l.Addr().String()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	cancel()
	return errors.Join(err, <-listenErr)
}
