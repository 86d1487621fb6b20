package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the CloudWatch log group and stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadBase(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			activity, err := newActivityLogger(a)
			if err != nil {
				return err
			}
			if err := activity.Setup(cmd.Context()); err != nil {
				return fmt.Errorf("setup: %w", err)
			}
			a.log.Info("cloudwatch log destination ready",
				zap.String("log_group", a.cfg.LogGroup),
				zap.String("log_stream", a.cfg.LogStream),
			)
			return nil
		},
	}
}
