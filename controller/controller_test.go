package controller

import (
	"context"
	"image"
	"testing"

	"github.com/nvr-ai/go-proximity/common"
	"github.com/nvr-ai/go-proximity/models/midas"
	"github.com/nvr-ai/go-proximity/models/model"
	"github.com/nvr-ai/go-proximity/models/postprocess"
	"github.com/nvr-ai/go-proximity/models/yolov5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// fakeEngine returns a canned tensor.
type fakeEngine struct {
	out   []float32
	err   error
	calls atomic.Int64
}

func (f *fakeEngine) Run(ctx context.Context, img image.Image) ([]float32, error) {
	f.calls.Inc()
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// Four anchors over two classes on a 100x100 frame:
//   - a confident person on the left,
//   - a near duplicate of it that NMS removes,
//   - a car on the right,
//   - a weak detection that fusion drops.
var detectorOutput = []float32{
	0.25, 0.5, 0.2, 0.2, 0.9, 0.8, 0.1,
	0.26, 0.5, 0.2, 0.2, 0.8, 0.7, 0.2,
	0.75, 0.5, 0.2, 0.2, 0.7, 0.1, 0.9,
	0.50, 0.1, 0.1, 0.1, 0.4, 0.6, 0.3,
}

// A 2x2 inverse depth map growing left to right: the right side is nearer.
var depthOutput = []float32{
	1, 9,
	1, 9,
}

func newTestConfig(t *testing.T) Config {
	t.Helper()

	dec, err := yolov5.NewModel(model.NewModelArgs{
		Input:   image.Pt(320, 320),
		Anchors: 4,
		Labels:  []string{"person", "car"},
	})
	require.NoError(t, err)

	est, err := midas.NewModel(model.NewModelArgs{
		Input:  image.Pt(256, 256),
		Output: image.Pt(2, 2),
	})
	require.NoError(t, err)

	return Config{
		Decoder:     dec,
		Estimator:   est,
		Detector:    &fakeEngine{out: detectorOutput},
		DepthEngine: &fakeEngine{out: depthOutput},
		NMS:         postprocess.DefaultNMSConfig(),
		Fusion:      postprocess.DefaultFusionConfig(),
	}
}

func labels(dets []postprocess.Detection) []string {
	out := make([]string, 0, len(dets))
	for _, d := range dets {
		out = append(out, d.Label)
	}
	return out
}

func TestPipeline_Analyze(t *testing.T) {
	p, err := NewPipeline(newTestConfig(t))
	require.NoError(t, err)

	dets, err := p.Analyze(image.Pt(100, 100), detectorOutput, depthOutput)
	require.NoError(t, err)
	require.Equal(t, []string{"car", "person"}, labels(dets))

	// Depth at x=75 and x=25 on a 1..9 ramp resampled to 100 columns.
	assert.InDelta(t, 1+8*75.0/99, dets[0].Depth, 1e-4)
	assert.InDelta(t, 1+8*25.0/99, dets[1].Depth, 1e-4)
	for _, d := range dets {
		assert.True(t, d.HasDepth)
		assert.True(t, d.Box.Within(100, 100))
	}
}

func TestPipeline_AnalyzeSmallerIsNearer(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Fusion.Order = postprocess.SmallerIsNearer

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	dets, err := p.Analyze(image.Pt(100, 100), detectorOutput, depthOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "car"}, labels(dets))
}

func TestPipeline_AnalyzeLogsDepthRange(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := newTestConfig(t)
	cfg.Log = logrus.NewEntry(logger)
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	_, err = p.Analyze(image.Pt(100, 100), detectorOutput, depthOutput)
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "depth resampled", entry.Message)
	assert.Equal(t, float32(1), entry.Data["depth_min"])
	assert.Equal(t, float32(9), entry.Data["depth_max"])
	// The weak detection survives suppression and is dropped only by fusion.
	assert.Equal(t, 3, entry.Data["kept"])
}

func TestPipeline_AnalyzeErrors(t *testing.T) {
	p, err := NewPipeline(newTestConfig(t))
	require.NoError(t, err)

	_, err = p.Analyze(image.Pt(100, 100), detectorOutput[:10], depthOutput)
	assert.True(t, errors.Is(err, common.ErrShapeMismatch))

	_, err = p.Analyze(image.Pt(100, 100), detectorOutput, depthOutput[:3])
	assert.True(t, errors.Is(err, common.ErrShapeMismatch))

	_, err = p.Analyze(image.Pt(0, 100), detectorOutput, depthOutput)
	assert.True(t, errors.Is(err, common.ErrEmptyInput))
}

func TestPipeline_Process(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		cfg := newTestConfig(t)
		cfg.Parallel = parallel

		p, err := NewPipeline(cfg)
		require.NoError(t, err)

		res, err := p.Process(context.Background(), Frame{ID: 7, Image: image.NewRGBA(image.Rect(0, 0, 100, 100))})
		require.NoError(t, err, "parallel=%v", parallel)
		assert.Equal(t, 7, res.FrameID)
		assert.Equal(t, image.Pt(100, 100), res.Size)
		assert.Equal(t, []string{"car", "person"}, labels(res.Detections))
		assert.Equal(t, int64(1), cfg.Detector.(*fakeEngine).calls.Load())
		assert.Equal(t, int64(1), cfg.DepthEngine.(*fakeEngine).calls.Load())
	}
}

func TestPipeline_ProcessErrors(t *testing.T) {
	t.Run("empty frame", func(t *testing.T) {
		p, err := NewPipeline(newTestConfig(t))
		require.NoError(t, err)

		_, err = p.Process(context.Background(), Frame{ID: 1, Image: image.NewRGBA(image.Rectangle{})})
		assert.True(t, errors.Is(err, common.ErrEmptyInput))

		_, err = p.Process(context.Background(), Frame{ID: 2})
		assert.True(t, errors.Is(err, common.ErrEmptyInput))
	})

	t.Run("engine failure", func(t *testing.T) {
		boom := errors.New("boom")
		for _, parallel := range []bool{false, true} {
			cfg := newTestConfig(t)
			cfg.Parallel = parallel
			cfg.DepthEngine = &fakeEngine{err: boom}

			p, err := NewPipeline(cfg)
			require.NoError(t, err)

			_, err = p.Process(context.Background(), Frame{ID: 3, Image: image.NewRGBA(image.Rect(0, 0, 10, 10))})
			assert.True(t, errors.Is(err, boom), "parallel=%v", parallel)
			assert.Contains(t, err.Error(), "frame 3")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		p, err := NewPipeline(newTestConfig(t))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		depth := p.cfg.DepthEngine.(*fakeEngine)

		_, err = p.Process(ctx, Frame{ID: 4, Image: image.NewRGBA(image.Rect(0, 0, 10, 10))})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, int64(0), depth.calls.Load())
	})
}

func TestNewPipeline_Validation(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.NMS.IoUThreshold = 2
	_, err := NewPipeline(cfg)
	assert.True(t, errors.Is(err, common.ErrInvalidThreshold))

	cfg = newTestConfig(t)
	cfg.Fusion.ConfidenceThreshold = -1
	_, err = NewPipeline(cfg)
	assert.True(t, errors.Is(err, common.ErrInvalidThreshold))

	cfg = newTestConfig(t)
	cfg.Decoder = nil
	_, err = NewPipeline(cfg)
	assert.Error(t, err)
}

func TestNewPipeline_NativeOrder(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Fusion.Order = ""

	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	assert.Equal(t, postprocess.LargerIsNearer, p.Order())

	dets, err := p.Analyze(image.Pt(100, 100), detectorOutput, depthOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "person"}, labels(dets))
}

func TestNewPipeline_OrderDiffersFromModel(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	cfg := newTestConfig(t)
	cfg.Log = logrus.NewEntry(logger)
	cfg.Fusion.Order = postprocess.SmallerIsNearer

	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	assert.Equal(t, postprocess.SmallerIsNearer, p.Order())

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, postprocess.SmallerIsNearer, entry.Data["order"])
	assert.Equal(t, postprocess.LargerIsNearer, entry.Data["native"])

	hook.Reset()
	cfg = newTestConfig(t)
	cfg.Log = logrus.NewEntry(logger)
	_, err = NewPipeline(cfg)
	require.NoError(t, err)
	assert.Empty(t, hook.Entries)
}

func TestAnnouncement(t *testing.T) {
	assert.Equal(t, []string{AnnouncementIntro}, Announcement(nil))

	res := &Result{Detections: []postprocess.Detection{{Label: "car"}, {Label: "person"}}}
	assert.Equal(t, []string{AnnouncementIntro, "car", "person"}, Announcement(res))
}
