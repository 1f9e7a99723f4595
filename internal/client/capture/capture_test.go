package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingStream struct {
	io.Reader
	closeFn func() error
	closes  atomic.Int32
}

func (c *countingStream) Close() error {
	c.closes.Add(1)
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

type fakeDevice struct {
	stream *countingStream
	err    error
}

func (d *fakeDevice) Open(context.Context) (io.ReadCloser, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

// liveDevice blocks reads until the stream is closed.
func liveDevice() (*fakeDevice, *io.PipeWriter) {
	pr, pw := io.Pipe()
	return &fakeDevice{stream: &countingStream{Reader: pr, closeFn: pr.Close}}, pw
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestStopReleasesStreamOnce(t *testing.T) {
	dev, pw := liveDevice()
	defer pw.Close()
	var sink syncBuffer

	s, err := Recorder{Device: dev}.Start(context.Background(), &sink)
	require.NoError(t, err)

	_, err = pw.Write([]byte("frame"))
	require.NoError(t, err)

	res, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, ReasonStopped, res.Reason)
	assert.Equal(t, int64(5), res.Bytes)
	assert.Equal(t, "frame", sink.String())

	_, err = s.Stop()
	assert.ErrorIs(t, err, ErrAlreadyStopped)
	assert.Equal(t, int32(1), dev.stream.closes.Load())
}

func TestContextCancelTearsDown(t *testing.T) {
	dev, pw := liveDevice()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Recorder{Device: dev}.Start(ctx, io.Discard)
	require.NoError(t, err)
	cancel()

	res, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, ReasonCanceled, res.Reason)
	assert.Equal(t, int32(1), dev.stream.closes.Load())
}

func TestMaxDurationStopsSession(t *testing.T) {
	dev, pw := liveDevice()
	defer pw.Close()

	s, err := Recorder{Device: dev, MaxDuration: 20 * time.Millisecond}.Start(context.Background(), io.Discard)
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not time out")
	}
	res, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeout, res.Reason)
	assert.Equal(t, int32(1), dev.stream.closes.Load())
}

func TestStreamEndFinishesSession(t *testing.T) {
	dev := &fakeDevice{stream: &countingStream{Reader: strings.NewReader("all of it")}}
	var sink syncBuffer

	s, err := Recorder{Device: dev}.Start(context.Background(), &sink)
	require.NoError(t, err)

	res, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, ReasonEnded, res.Reason)
	assert.Equal(t, "all of it", sink.String())
	assert.Equal(t, int32(1), dev.stream.closes.Load())
}

func TestStreamErrorFailsSession(t *testing.T) {
	boom := errors.New("device unplugged")
	dev := &fakeDevice{stream: &countingStream{Reader: io.MultiReader(strings.NewReader("x"), errReader{boom})}}

	s, err := Recorder{Device: dev}.Start(context.Background(), io.Discard)
	require.NoError(t, err)

	res, err := s.Wait()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ReasonFailed, res.Reason)
	assert.Equal(t, int32(1), dev.stream.closes.Load())
}

func TestStartDeviceError(t *testing.T) {
	_, err := Recorder{Device: &fakeDevice{err: errors.New("permission denied")}}.Start(context.Background(), io.Discard)
	assert.ErrorContains(t, err, "permission denied")

	_, err = Recorder{}.Start(context.Background(), io.Discard)
	assert.Error(t, err)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
