package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nvr-ai/go-proximity/controller"
	"github.com/nvr-ai/go-proximity/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newImageCmd(opts *options) *cobra.Command {
	var announce bool

	cmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Rank the objects in a single image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "read %s", args[0])
			}
			img, err := util.ImageFile{Path: args[0], Data: data}.Decode()
			if err != nil {
				return err
			}

			rt, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.pipeline.Process(cmd.Context(), controller.Frame{Image: img, Timestamp: time.Now()})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), res)
			if announce {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(controller.Announcement(res), " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&announce, "announce", true, "print the spoken summary")
	return cmd
}
