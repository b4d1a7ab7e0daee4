package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/talkcad/internal/config"
	"github.com/Faultbox/talkcad/internal/logger"
	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/internal/ui"
)

func (a *app) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive editor (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runTUI,
	}
}

// runTUI runs the editor, the archive writer and the mesh watcher together.
// Whichever stops first stops the others.
func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	// The UI owns the terminal; logs only go to the file.
	if err := logger.InitForTUI(a.cfg.Logging.Level, a.cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := a.openSession(ctx, a.lazyCollaborator())
	if err != nil {
		return err
	}
	defer sess.Close()

	store, err := a.openArchive()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	var watcher *mesh.Watcher
	if a.cfg.Kernel.Source == config.SourceFile && a.cfg.Kernel.Watch {
		watcher, err = mesh.NewWatcher(a.cfg.Kernel.Path, mesh.DefaultDebounce, logger.Named("watch"))
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	if store != nil {
		events, unsubscribe := sess.Subscribe(16)
		defer unsubscribe()
		g.Go(func() error {
			return store.Follow(gctx, sess.ID(), events)
		})
	}

	opts := ui.Options{
		Markdown: a.cfg.UI.Markdown,
		Width:    a.cfg.UI.Width,
		Log:      logger.Named("ui"),
	}
	if watcher != nil {
		opts.Models = watcher.Models()
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	program := tea.NewProgram(ui.New(gctx, sess, opts), tea.WithAltScreen(), tea.WithContext(gctx))
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("running ui: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("session ended",
		zap.String("session", sess.ID()),
		zap.Int("revisions", sess.RevisionCount()),
	)
	return err
}
