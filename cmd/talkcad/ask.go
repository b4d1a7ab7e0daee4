package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/talkcad/internal/face"
	"github.com/Faultbox/talkcad/internal/logger"
	"github.com/Faultbox/talkcad/internal/session"
)

func (a *app) newAskCmd() *cobra.Command {
	var faceID int

	cmd := &cobra.Command{
		Use:   "ask <instruction>",
		Short: "Send one instruction and print the resulting revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initLogging(); err != nil {
				return err
			}
			defer logger.Sync()
			ctx := cmd.Context()

			collab, err := a.collaborator(ctx)
			if err != nil {
				return err
			}
			sess, err := a.openSession(ctx, collab)
			if err != nil {
				return err
			}
			defer sess.Close()

			if faceID >= 0 {
				md, err := sess.SelectFace(face.ID(faceID))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected %s (face %d)\n", md.Name, faceID)
			}

			out, err := sess.Submit(ctx, args[0])
			if err != nil && !errors.Is(err, session.ErrRederive) {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Applied %s\n", out.Revision.Description)
			fmt.Fprintf(w, "Revision %s\n", out.Revision.ID)
			if len(out.Parameters) > 0 {
				fmt.Fprintf(w, "Parameters %v\n", out.Parameters)
			}
			if out.Reasoning != "" {
				fmt.Fprintf(w, "Reasoning: %s\n", out.Reasoning)
			}

			store, serr := a.openArchive()
			if serr != nil {
				return serr
			}
			if store != nil {
				defer store.Close()
				if serr := store.Record(ctx, sess.ID(), out.Revision); serr != nil {
					return serr
				}
				logger.Debug("revision archived", zap.String("id", out.Revision.ID))
			}
			return err
		},
	}
	cmd.Flags().IntVar(&faceID, "face", -1, "Face id to select before asking")
	return cmd
}

func (a *app) newPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick <triangle>",
		Short: "Show which face a triangle index belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var triangle int
			if _, err := fmt.Sscan(args[0], &triangle); err != nil {
				return fmt.Errorf("triangle index %q: %w", args[0], err)
			}
			if err := a.initLogging(); err != nil {
				return err
			}
			defer logger.Sync()

			sess, err := a.openSession(cmd.Context(), a.lazyCollaborator())
			if err != nil {
				return err
			}
			defer sess.Close()

			id, md, err := sess.Pick(triangle)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "triangle %d -> face %s: %s (normal %s)\n", triangle, id, md.Name, md.Normal)
			return nil
		},
	}
}
