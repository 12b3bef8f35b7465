package main

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/nvr-ai/go-proximity/controller"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

const (
	keySpace    = 32
	keyAnnounce = 'a'
	keyQuit     = 'q'
)

func newCameraCmd(opts *options) *cobra.Command {
	var (
		deviceID   int
		showWindow bool
	)

	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Rank objects live from a video capture device",
		Long: "Reads frames from a capture device and analyzes the latest one whenever the\n" +
			"pipeline is free. With --window, space toggles analysis, 'a' prints the\n" +
			"spoken summary of the last result and 'q' quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			webcam, err := gocv.OpenVideoCapture(deviceID)
			if err != nil {
				return errors.Wrapf(err, "open capture device %d", deviceID)
			}
			defer webcam.Close()

			latest := &latestResult{}
			out := cmd.OutOrStdout()
			runner := controller.NewRunner(rt.pipeline, controller.ConsumerFunc(func(res *controller.Result) {
				latest.set(res)
				printResult(out, res)
			}), logrus.WithField("device", deviceID))
			defer runner.Close()

			var window *gocv.Window
			if showWindow {
				window = gocv.NewWindow("proximity")
				defer window.Close()
			}

			mat := gocv.NewMat()
			defer mat.Close()

			log := logrus.WithField("device", deviceID)
			log.Info("start reading camera device")

			ctx := cmd.Context()
			var previous string
			for frameID := 0; ctx.Err() == nil; frameID++ {
				if ok := webcam.Read(&mat); !ok {
					return errors.Errorf("cannot read device %d", deviceID)
				}
				if mat.Empty() {
					continue
				}

				// Some drivers hand back the same buffer when no new frame is ready.
				sum := matChecksum(mat)
				if duplicateFrame(previous, sum) {
					continue
				}
				previous = sum

				img, err := mat.ToImage()
				if err != nil {
					log.WithError(err).Warn("frame conversion failed")
					continue
				}
				runner.Submit(controller.Frame{ID: frameID, Image: img, Timestamp: time.Now()})

				if window == nil {
					continue
				}

				drawResult(&mat, latest.get())
				window.IMShow(mat)
				switch window.WaitKey(1) {
				case keySpace:
					runner.SetEnabled(!runner.Enabled())
					log.WithField("enabled", runner.Enabled()).Info("analysis toggled")
				case keyAnnounce:
					fmt.Fprintln(out, strings.Join(controller.Announcement(latest.get()), " "))
				case keyQuit:
					return nil
				}
			}

			processed, failed, dropped := runner.Stats()
			log.WithFields(logrus.Fields{
				"processed": processed,
				"failed":    failed,
				"dropped":   dropped,
			}).Info("camera stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&deviceID, "device", 0, "video capture device ID")
	cmd.Flags().BoolVar(&showWindow, "window", false, "show the annotated video in a window")
	return cmd
}

// latestResult holds the most recent result for the display loop.
type latestResult struct {
	mu  sync.Mutex
	res *controller.Result
}

func (l *latestResult) set(res *controller.Result) {
	l.mu.Lock()
	l.res = res
	l.mu.Unlock()
}

func (l *latestResult) get() *controller.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.res
}

// drawResult outlines every detection and labels it with its proximity rank.
func drawResult(mat *gocv.Mat, res *controller.Result) {
	if res == nil {
		return
	}

	blue := color.RGBA{0, 0, 255, 0}
	for rank, d := range res.Detections {
		r := d.Box.ToRectangle()
		gocv.Rectangle(mat, r, blue, 2)
		gocv.PutText(mat, fmt.Sprintf("%d %s", rank+1, d.Label),
			image.Pt(r.Min.X, r.Min.Y-4), gocv.FontHersheyPlain, 1.2, blue, 2)
	}
}

// duplicateFrame reports whether a frame repeats the previous one. An empty
// checksum never matches.
func duplicateFrame(previous, sum string) bool {
	return sum != "" && sum == previous
}

// matChecksum returns an MD5 digest of the frame's pixels, or "" when the
// pixels cannot be read.
func matChecksum(mat gocv.Mat) string {
	data, err := mat.DataPtrUint8()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", md5.Sum(data))
}
