package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/talkcad/internal/archive"
	"github.com/Faultbox/talkcad/internal/config"
	"github.com/Faultbox/talkcad/internal/logger"
	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/internal/reasoning"
	"github.com/Faultbox/talkcad/internal/reasoning/gemini"
	"github.com/Faultbox/talkcad/internal/session"
)

// newCollaborator builds the reasoning collaborator. Tests replace it.
var newCollaborator = func(ctx context.Context, cfg config.ReasoningConfig, log *zap.Logger) (reasoning.Collaborator, error) {
	g, err := gemini.New(ctx, gemini.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
		Log:         log,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// app carries what every subcommand needs after the root has loaded config.
type app struct {
	flags config.Flags
	cfg   *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "talkcad",
		Short: "Edit a CAD model by talking to it",
		Long: `talkcad pairs a tessellated solid with an AI collaborator. Pick a face,
describe a change, and every accepted change lands in an append-only
revision ledger.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(&a.flags)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, args)
		},
	}
	a.flags.Bind(root.PersistentFlags())

	root.AddCommand(
		a.newTUICmd(),
		a.newAskCmd(),
		a.newPickCmd(),
		a.newHistoryCmd(),
		a.newConfigCmd(),
	)
	return root
}

// initLogging sets up console logging for the one-shot commands.
func (a *app) initLogging() error {
	if err := logger.Init(a.cfg.Logging.Level, a.cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	return nil
}

func (a *app) kernel() *mesh.Handle {
	k := a.cfg.Kernel
	return mesh.NewHandle(func(context.Context) (mesh.Producer, error) {
		switch k.Source {
		case config.SourceTopoBox:
			return mesh.TopoBox{Size: k.Size, Divisions: k.Divisions}, nil
		case config.SourceFile:
			return mesh.File{Path: k.Path}, nil
		default:
			return mesh.Box{Size: k.Size}, nil
		}
	}, logger.Named("kernel"))
}

// collaborator builds the configured collaborator now.
func (a *app) collaborator(ctx context.Context) (reasoning.Collaborator, error) {
	collab, err := newCollaborator(ctx, a.cfg.Reasoning, logger.Named("reasoning"))
	if err != nil {
		return nil, fmt.Errorf("creating collaborator: %w", err)
	}
	return collab, nil
}

// lazyCollaborator builds the collaborator on the first submission, so
// commands that only pick faces work without an API key.
func (a *app) lazyCollaborator() reasoning.Collaborator {
	return reasoning.Lazy(a.collaborator)
}

// openSession builds the kernel and the session from config.
func (a *app) openSession(ctx context.Context, collab reasoning.Collaborator) (*session.Session, error) {
	mode, err := a.cfg.FaceMode()
	if err != nil {
		return nil, err
	}

	sess, err := session.New(ctx, session.Options{
		Kernel:       a.kernel(),
		Mode:         mode,
		Collaborator: collab,
		Log:          logger.Named("session"),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("session started",
		zap.String("session", sess.ID()),
		zap.String("kernel", a.cfg.Kernel.Source),
		zap.Stringer("mode", mode),
	)
	return sess, nil
}

// openArchive returns nil when archiving is disabled.
func (a *app) openArchive() (*archive.Store, error) {
	if a.cfg.Archive.Path == "" {
		return nil, nil
	}
	return archive.Open(a.cfg.Archive.Path, logger.Named("archive"))
}
