// Package scheduler batches many encoded textures into fixed-size pages,
// lays them out in a pinned staging buffer the way a device upload would
// expect, and fans the page's decode work out across a worker pool.
package scheduler

import (
	"encoding/binary"
	"errors"
	"runtime"
	"sync"

	"github.com/kafemoka/GST/container"
	"github.com/kafemoka/GST/device"
)

// PageSize is the default maximum number of requests batched into one page
// before it is flushed to the device.
const PageSize = 16

// offsetTableAlign and freqRegionAlign mirror the host-buffer layout a pinned
// staging region needs: the offset table rounds up to the device's
// sub-buffer alignment, and the region holding per-request frequency
// tables rounds up to a coarser boundary so it can itself be carved into
// sub-buffers without straddling a device page.
const (
	offsetTableAlign = 128
	freqRegionAlign  = 512
)

// Errors below distinguish per-request failures, which drop just the
// offending request out of its page, from device-level failures, which
// fail the whole batch: a device that can't be interoped with at all isn't
// going to succeed on a retry of any other request in the page either.
var (
	ErrBadContainer      = container.ErrBadContainer
	ErrMalformedStream   = device.ErrMalformedPlane
	ErrDeviceUnsupported = device.ErrDeviceUnsupported
	ErrInteropFailure    = device.ErrInteropFailure
	ErrOutOfResources    = device.ErrOutOfResources
)

// Request is one encoded texture submitted for decode.
type Request struct {
	Data []byte
}

// Result is one request's outcome. Err is only ever set together with
// Dropped: this request alone was malformed and the rest of its page still
// ran. A device-level failure is not recorded in any Result; it is the
// error FlushPage and Run return, and Results of requests the failed page
// never serviced are left at their zero value.
type Result struct {
	Index   int
	Header  container.Header
	DXT     []byte
	Err     error
	Dropped bool
}

// Batch decodes many requests against a device.Queue, paging them and
// fanning each page's work out across worker goroutines (1 when async
// execution is disabled, runtime.GOMAXPROCS(0) otherwise).
type Batch struct {
	queue    device.Queue
	workers  int
	pageSize int
	lanes    int

	pending   []Request
	nextIndex int
}

// NewBatch constructs a Batch. async mirrors gtc.Options.Async: when false,
// every request runs on a single worker, matching the synchronous decoder
// path a caller without spare cores would want. pageSize overrides PageSize
// when positive, matching gtc.Options.PageSize; lanes overrides device.Lanes
// when positive, matching gtc.Options.InterleaveFactor.
func NewBatch(q device.Queue, async bool, pageSize, lanes int) *Batch {
	workers := 1

	if async {
		workers = runtime.GOMAXPROCS(0)
	}

	if pageSize <= 0 {
		pageSize = PageSize
	}

	if lanes <= 0 {
		lanes = device.Lanes
	}

	return &Batch{queue: q, workers: workers, pageSize: pageSize, lanes: lanes}
}

// pageLayout describes where each request's offset entry and payload bytes
// land in a pinned host staging buffer, following the original reference's
// offsets-then-frequency-tables-then-data ordering.
type pageLayout struct {
	offsetTableBytes int
	freqRegionBytes  int
	dataOffsets      []int
	totalBytes       int
}

func roundUp(v, align int) int {
	if v%align == 0 {
		return v
	}
	return v + (align - v%align)
}

// buildPageLayout computes a pageLayout for a page of requests whose
// encoded container lengths (header, frequency tables and streams) are
// given by dataLens.
func buildPageLayout(dataLens []int) pageLayout {
	offBytes := roundUp(len(dataLens)*4, offsetTableAlign)
	freqBytes := roundUp(len(dataLens)*container.PayloadCount*container.FrequencyTableBytes, freqRegionAlign)

	offsets := make([]int, len(dataLens))
	cursor := offBytes + freqBytes

	for i, l := range dataLens {
		offsets[i] = cursor
		cursor += l
	}

	return pageLayout{
		offsetTableBytes: offBytes,
		freqRegionBytes:  freqBytes,
		dataOffsets:      offsets,
		totalBytes:       cursor,
	}
}

// EnqueueImage appends data to the batch's current, not-yet-flushed page.
// Call FlushPage once enough images have been enqueued; Run does this
// automatically every pageSize images.
func (b *Batch) EnqueueImage(data []byte) {
	b.pending = append(b.pending, Request{Data: data})
}

// FlushPage builds the pinned staging buffer for every image enqueued since
// the last flush, following the layout buildPageLayout computes, copies it
// to the device with one EnqueueCopy, and enqueues the page's decode work
// with one EnqueueKernel gated on that copy's completion. It returns that
// page's Results, valid once the returned event completes, and the
// completion event itself. Result indices stay continuous across flushes.
func (b *Batch) FlushPage() ([]Result, device.Event, error) {
	page := b.pending
	b.pending = nil

	if len(page) == 0 {
		return nil, readyEvent{}, nil
	}

	dataLens := make([]int, len(page))
	for i, r := range page {
		dataLens[i] = len(r.Data)
	}

	layout := buildPageLayout(dataLens)
	staging := make([]byte, layout.totalBytes)

	for i, off := range layout.dataOffsets {
		binary.LittleEndian.PutUint32(staging[i*4:i*4+4], uint32(off))
		copy(staging[off:off+len(page[i].Data)], page[i].Data)
	}

	dst := make([]byte, layout.totalBytes)

	copyEvt, err := b.queue.EnqueueCopy(dst, staging, nil)
	if err != nil {
		return nil, nil, err
	}

	baseIndex := b.nextIndex
	b.nextIndex += len(page)
	out := make([]Result, len(page))

	kernelEvt, err := b.queue.EnqueueKernel(func() error {
		return b.runPage(page, layout, dst, out, baseIndex)
	}, []device.Event{copyEvt})

	if err != nil {
		return nil, nil, err
	}

	if err := kernelEvt.Wait(); err != nil {
		return out, kernelEvt, err
	}

	return out, kernelEvt, nil
}

// Run pages reqs through EnqueueImage/FlushPage, pageSize requests at a
// time, and returns every request's Result in input order alongside one
// completion event per flushed page. It returns a non-nil error only when a
// device-level failure aborts an entire page; per-request container or
// stream corruption is reported through that request's Result instead.
func (b *Batch) Run(reqs []Request) ([]Result, []device.Event, error) {
	var results []Result
	var events []device.Event

	for start := 0; start < len(reqs); start += b.pageSize {
		end := start + b.pageSize
		if end > len(reqs) {
			end = len(reqs)
		}

		for _, r := range reqs[start:end] {
			b.EnqueueImage(r.Data)
		}

		pageResults, evt, err := b.FlushPage()
		if err != nil {
			return results, events, err
		}

		results = append(results, pageResults...)
		events = append(events, evt)
	}

	return results, events, nil
}

func (b *Batch) runPage(page []Request, layout pageLayout, dst []byte, out []Result, baseIndex int) error {
	workers := b.workers
	if workers > len(page) {
		workers = len(page)
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (len(page) + workers - 1) / workers
	var wg sync.WaitGroup
	var mu sync.Mutex
	var deviceErr error

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(page) {
			hi = len(page)
		}
		if lo >= hi {
			continue
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()

			for i := lo; i < hi; i++ {
				off := layout.dataOffsets[i]
				data := dst[off : off+len(page[i].Data)]
				res, err := b.decodeOne(baseIndex+i, Request{Data: data})

				if err != nil && isDeviceFailure(err) {
					mu.Lock()
					if deviceErr == nil {
						deviceErr = err
					}
					mu.Unlock()
					return
				}

				out[i] = res
			}
		}(lo, hi)
	}

	wg.Wait()
	return deviceErr
}

func (b *Batch) decodeOne(index int, req Request) (Result, error) {
	c, err := container.Decode(req.Data)
	if err != nil {
		return Result{Index: index, Err: err, Dropped: true}, nil
	}

	dxt, err := device.RunDecode(b.queue, c.Header, c, b.lanes)
	if err != nil {
		if isDeviceFailure(err) {
			return Result{}, err
		}

		return Result{Index: index, Header: c.Header, Err: err, Dropped: true}, nil
	}

	return Result{Index: index, Header: c.Header, DXT: dxt}, nil
}

func isDeviceFailure(err error) bool {
	return errors.Is(err, device.ErrDeviceUnsupported) ||
		errors.Is(err, device.ErrInteropFailure) ||
		errors.Is(err, device.ErrOutOfResources)
}

// readyEvent is an already-completed device.Event, used when FlushPage has
// nothing pending to flush.
type readyEvent struct{}

func (readyEvent) Wait() error { return nil }
func (readyEvent) Done() bool  { return true }
