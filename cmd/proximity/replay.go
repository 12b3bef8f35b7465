package main

import (
	"time"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/controller"
	"github.com/nvr-ai/go-proximity/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newReplayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <dir>",
		Short: "Run the pipeline over a directory of frame-<n> images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := util.LoadDirectoryImageFiles(args[0])
			if err != nil {
				return err
			}

			rt, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			log := logrus.WithField("dir", args[0])
			log.WithField("frames", len(files)).Info("replay started")

			ctx := cmd.Context()
			for _, f := range files {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				img, err := f.Decode()
				if err != nil {
					log.WithError(err).Warn("frame skipped")
					continue
				}

				res, err := rt.pipeline.Process(ctx, controller.Frame{ID: f.Frame, Image: img, Timestamp: time.Now()})
				if err != nil {
					if common.IsFrameError(err) {
						log.WithError(err).WithField("frame", f.Frame).Warn("frame skipped")
						continue
					}
					return err
				}
				printResult(cmd.OutOrStdout(), res)
			}
			return nil
		},
	}
}
