package cropwatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gocv.io/x/gocv"

	"github.com/swdee/go-cropwatch/postprocess"
)

// countingDetector records concurrent use so tests can check a detector is
// never shared between goroutines
type countingDetector struct {
	id      int
	inUse   atomic.Int32
	shared  atomic.Bool
	closed  atomic.Bool
	release chan struct{}
}

func (c *countingDetector) Detect(ctx context.Context, frame gocv.Mat, idx int) ([]postprocess.Detection, error) {

	if c.inUse.Add(1) > 1 {
		c.shared.Store(true)
	}
	defer c.inUse.Add(-1)

	if c.release != nil {
		<-c.release
	}

	return []postprocess.Detection{{Label: "tungro", Confidence: 0.9, FrameIndex: idx}}, nil
}

func (c *countingDetector) Close() error {
	c.closed.Store(true)
	return nil
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolDetectSerialisesDetectors(t *testing.T) {

	var dets []*countingDetector

	pool, err := NewPool(2, func(i int) (Detector, error) {
		d := &countingDetector{id: i}
		dets = append(dets, d)
		return d, nil
	})
	require.NoError(t, err)

	frame := gocv.NewMat()
	defer frame.Close()

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := pool.Detect(context.Background(), frame, i)
			assert.NoError(t, err)
			assert.Len(t, res, 1)
			assert.Equal(t, i, res[0].FrameIndex)
		}(i)
	}

	wg.Wait()

	for _, d := range dets {
		assert.False(t, d.shared.Load(), "detector %d used concurrently", d.id)
	}

	require.NoError(t, pool.Close())

	for _, d := range dets {
		assert.True(t, d.closed.Load())
	}
}

func TestPoolGetHonoursContext(t *testing.T) {

	release := make(chan struct{})
	d := &countingDetector{release: release}

	pool, err := NewPool(1, func(i int) (Detector, error) { return d, nil })
	require.NoError(t, err)

	frame := gocv.NewMat()
	defer frame.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = pool.Detect(context.Background(), frame, 0)
	}()

	// wait for the only detector to be taken
	require.Eventually(t, func() bool { return d.inUse.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Detect(ctx, frame, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done

	require.NoError(t, pool.Close())

	_, err = pool.Detect(context.Background(), frame, 2)
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestNewPoolClosesOnError(t *testing.T) {

	first := &countingDetector{}

	_, err := NewPool(3, func(i int) (Detector, error) {
		if i == 1 {
			return nil, errors.New("model load failed")
		}
		return first, nil
	})

	require.Error(t, err)
	assert.True(t, first.closed.Load())

	_, err = NewPool(0, nil)
	assert.Error(t, err)
}

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(file, []byte("Rust-Leaf\n\n  tungro  \n"), 0o600))

	labels, err := LoadLabels(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust-Leaf", "tungro"}, labels)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))

	_, err = LoadLabels(empty)
	assert.Error(t, err)
}

func TestLookupProfile(t *testing.T) {

	p, err := LookupProfile("paddy")
	require.NoError(t, err)
	assert.Equal(t, "PaddyDet.onnx", p.Model)

	_, err = LookupProfile("wheat")
	assert.Error(t, err)

	assert.Equal(t, []string{"groundnut", "paddy"}, ProfileNames())
}
