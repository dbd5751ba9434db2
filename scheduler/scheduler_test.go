package scheduler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kafemoka/GST/container"
	"github.com/kafemoka/GST/device"
	"github.com/kafemoka/GST/internal/histbuild"
	"github.com/kafemoka/GST/scheduler"
)

func buildRequest(t *testing.T) scheduler.Request {
	t.Helper()
	_, c, err := histbuild.BuildContainer(device.Lanes, device.Lanes, 8)
	require.NoError(t, err)
	return scheduler.Request{Data: container.Encode(c)}
}

func TestBatchDecodesEachRequestIndependently(t *testing.T) {
	const count = scheduler.PageSize + 4 // spans two pages
	reqs := make([]scheduler.Request, count)

	for i := range reqs {
		reqs[i] = buildRequest(t)
	}

	b := scheduler.NewBatch(device.CPUQueue{}, true, scheduler.PageSize, device.Lanes)
	results, events, err := b.Run(reqs)
	require.NoError(t, err)
	require.Len(t, results, count)
	require.Len(t, events, 2) // count spans two pages

	for _, evt := range events {
		require.NoError(t, evt.Wait())
	}

	wantLen := device.Lanes * device.Lanes * device.BlockBytes

	for i, r := range results {
		require.NoError(t, r.Err, "request %d", i)
		require.False(t, r.Dropped, "request %d", i)
		require.Len(t, r.DXT, wantLen, "request %d", i)
		require.Equal(t, i, r.Index)
	}
}

func TestBatchDropsMalformedRequestWithoutFailingOthers(t *testing.T) {
	good := buildRequest(t)
	bad := scheduler.Request{Data: []byte{1, 2, 3}}

	b := scheduler.NewBatch(device.CPUQueue{}, false, scheduler.PageSize, device.Lanes)
	results, _, err := b.Run([]scheduler.Request{good, bad, good})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.False(t, results[0].Dropped)
	require.NoError(t, results[0].Err)

	require.True(t, results[1].Dropped)
	require.ErrorIs(t, results[1].Err, container.ErrBadContainer)

	require.False(t, results[2].Dropped)
	require.NoError(t, results[2].Err)
}

type failingQueue struct{}

func (failingQueue) BaseAddressAlignment() int { return device.BaseAddressAlignment }
func (failingQueue) EnqueueCopy(dst, src []byte, wait []device.Event) (device.Event, error) {
	return nil, device.ErrOutOfResources
}
func (failingQueue) EnqueueKernel(fn func() error, wait []device.Event) (device.Event, error) {
	return nil, device.ErrOutOfResources
}
func (failingQueue) DecodeDXT(h container.Header, c container.Container) ([]byte, error) {
	return nil, device.ErrOutOfResources
}

func TestBatchFailsWholePageOnDeviceError(t *testing.T) {
	reqs := []scheduler.Request{buildRequest(t), buildRequest(t)}

	b := scheduler.NewBatch(failingQueue{}, false, scheduler.PageSize, device.Lanes)
	_, _, err := b.Run(reqs)
	require.True(t, errors.Is(err, device.ErrOutOfResources))
}

func TestBatchEnqueueImageFlushPageMatchesRun(t *testing.T) {
	reqs := []scheduler.Request{buildRequest(t), buildRequest(t), buildRequest(t)}

	b := scheduler.NewBatch(device.CPUQueue{}, false, scheduler.PageSize, device.Lanes)
	for _, r := range reqs {
		b.EnqueueImage(r.Data)
	}

	results, evt, err := b.FlushPage()
	require.NoError(t, err)
	require.NoError(t, evt.Wait())
	require.Len(t, results, len(reqs))

	for i, r := range results {
		require.NoError(t, r.Err, "request %d", i)
		require.Equal(t, i, r.Index)
	}

	// Nothing left pending once a page has been flushed.
	empty, emptyEvt, err := b.FlushPage()
	require.NoError(t, err)
	require.NoError(t, emptyEvt.Wait())
	require.Empty(t, empty)
}

// countingQueue wraps device.CPUQueue to count how many times a page was
// actually staged and copied, so NewBatch's pageSize argument can be
// checked against real flush behavior rather than just accepted silently.
type countingQueue struct {
	device.CPUQueue
	copies int
}

func (q *countingQueue) EnqueueCopy(dst, src []byte, wait []device.Event) (device.Event, error) {
	q.copies++
	return q.CPUQueue.EnqueueCopy(dst, src, wait)
}

func TestNewBatchHonorsPageSizeOverride(t *testing.T) {
	const count = 6
	reqs := make([]scheduler.Request, count)
	for i := range reqs {
		reqs[i] = buildRequest(t)
	}

	q := &countingQueue{}
	b := scheduler.NewBatch(q, false, 2, device.Lanes) // 6 requests over pages of 2 -> 3 flushes
	results, events, err := b.Run(reqs)
	require.NoError(t, err)
	require.Len(t, results, count)
	require.Len(t, events, 3)
	require.Equal(t, 3, q.copies)
}
