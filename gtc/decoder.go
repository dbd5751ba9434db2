package gtc

import (
	"errors"

	"github.com/pkg/profile"

	"github.com/kafemoka/GST/container"
	"github.com/kafemoka/GST/device"
	"github.com/kafemoka/GST/scheduler"
)

// InitializeDecoder probes whether ctx is usable for decode work. CPUQueue
// always succeeds; a real accelerator binding might fail if the device
// doesn't support the required interop mode.
func InitializeDecoder(ctx device.Queue) (bool, error) {
	if ctx == nil {
		return false, newCodecError(DeviceUnsupported, "nil device queue")
	}

	return true, nil
}

// Decoder is the library's entry point: one texture-decode session bound to
// a device queue and a set of Options.
type Decoder struct {
	queue      device.Queue
	opts       Options
	scratch    []byte
	preAllocBy int
}

// NewDecoder constructs a Decoder bound to ctx, applying opts over the
// default Options.
func NewDecoder(ctx device.Queue, opts ...Option) *Decoder {
	return &Decoder{queue: ctx, opts: resolveOptions(opts)}
}

// Preallocate reserves bytes of host-side scratch memory up front, so a
// later LoadCompressedDXT(s) call doesn't need to allocate on its hot path.
func (d *Decoder) Preallocate(bytes int) error {
	if bytes < 0 {
		return newCodecError(OutOfResources, "negative preallocation size")
	}

	d.scratch = make([]byte, bytes)
	d.preAllocBy = bytes
	return nil
}

// PreallocateForHeaders reserves scratch memory sized for decoding every
// header in hdrs: the sum of device.RequiredScratchMem across each one, so a
// caller that already knows its batch's headers doesn't have to size the
// reservation by hand.
func (d *Decoder) PreallocateForHeaders(hdrs []container.Header) error {
	total := 0
	for _, h := range hdrs {
		total += device.RequiredScratchMem(h)
	}

	return d.Preallocate(total)
}

// Free releases the decoder's preallocated scratch memory.
func (d *Decoder) Free() {
	d.scratch = nil
	d.preAllocBy = 0
}

// PreallocatedBytes reports how many bytes of scratch memory are currently
// reserved by Preallocate/PreallocateForHeaders.
func (d *Decoder) PreallocatedBytes() int {
	return d.preAllocBy
}

// LoadCompressedDXT decodes a single encoded texture (hdr describing
// input's container framing) into output, returning an Event the caller
// can wait on.
func (d *Decoder) LoadCompressedDXT(hdr container.Header, queue device.Queue, input []byte, output device.PixelBuffer, wait []device.Event) (device.Event, error) {
	return d.LoadCompressedDXTs([]container.Header{hdr}, queue, input, output, wait)
}

// LoadCompressedDXTs decodes a batch of encoded textures, one container
// per header in hdrs, concatenated in input, writing the assembled DXT1
// block stream(s) into output. The acquire/release protocol around output
// brackets the whole batch, matching the single shared-pixel-buffer
// handoff a graphics interop binding expects.
func (d *Decoder) LoadCompressedDXTs(hdrs []container.Header, queue device.Queue, input []byte, output device.PixelBuffer, wait []device.Event) (device.Event, error) {
	if d.opts.Profiling {
		stop := profile.Start(profile.CPUProfile)
		defer stop.Stop()
	}

	if err := device.WaitAll(wait); err != nil {
		return nil, newCodecError(InteropFailure, err.Error())
	}

	if output != nil {
		if err := output.Acquire(); err != nil {
			return nil, newCodecError(InteropFailure, err.Error())
		}
		defer output.Release()
	}

	reqs, err := splitRequests(hdrs, input)
	if err != nil {
		return nil, err
	}

	q := queue
	if q == nil {
		q = d.queue
	}

	b := scheduler.NewBatch(q, d.opts.Async, d.opts.PageSize, d.opts.InterleaveFactor)
	results, events, err := b.Run(reqs)

	if err != nil {
		return nil, classifyBatchError(err)
	}

	if output != nil {
		dst := output.Bytes()
		off := 0

		for _, r := range results {
			if r.Err != nil {
				d.opts.Logger.WithError(r.Err).Warn("dropping malformed texture from batch")
				continue
			}

			off += copy(dst[off:], r.DXT)
		}
	}

	return multiPageEvent{events: events}, nil
}

// LoadRGB decodes a single encoded texture directly to uncompressed RGB
// bytes, skipping DXT1 block assembly. Unlike LoadCompressedDXT(s), the
// header is read from input's own container framing rather than supplied
// separately, since the uncompressed path has no batch of headers to align
// against a shared input buffer.
func (d *Decoder) LoadRGB(queue device.Queue, input []byte, output device.PixelBuffer, wait []device.Event) (device.Event, error) {
	if err := device.WaitAll(wait); err != nil {
		return nil, newCodecError(InteropFailure, err.Error())
	}

	c, err := container.Decode(input)
	if err != nil {
		return nil, newCodecError(BadContainer, err.Error())
	}

	hdr := c.Header

	if output != nil {
		if err := output.Acquire(); err != nil {
			return nil, newCodecError(InteropFailure, err.Error())
		}
		defer output.Release()
	}

	rgb, err := device.RunDecodeRGB(queue, hdr, c, d.opts.InterleaveFactor)
	if err != nil {
		return nil, classifyBatchError(err)
	}

	if output != nil {
		copy(output.Bytes(), rgb)
	}

	return readyDoneEvent{}, nil
}

func splitRequests(hdrs []container.Header, input []byte) ([]scheduler.Request, error) {
	reqs := make([]scheduler.Request, len(hdrs))
	off := 0

	for i, h := range hdrs {
		sz := h.EncodedSize()

		if off+sz > len(input) {
			return nil, newCodecError(BadContainer, "input buffer shorter than headers imply")
		}

		reqs[i] = scheduler.Request{Data: input[off : off+sz]}
		off += sz
	}

	return reqs, nil
}

func classifyBatchError(err error) error {
	switch {
	case errors.Is(err, device.ErrDeviceUnsupported):
		return newCodecError(DeviceUnsupported, err.Error())
	case errors.Is(err, device.ErrInteropFailure):
		return newCodecError(InteropFailure, err.Error())
	case errors.Is(err, device.ErrOutOfResources):
		return newCodecError(OutOfResources, err.Error())
	default:
		return newCodecError(MalformedStream, err.Error())
	}
}

// readyDoneEvent is an already-completed device.Event, used when LoadRGB
// finishes its single-texture decode synchronously.
type readyDoneEvent struct{}

func (readyDoneEvent) Wait() error { return nil }
func (readyDoneEvent) Done() bool  { return true }

// multiPageEvent composes the per-page completion events a batch flush
// produces into the single device.Event LoadCompressedDXT(s) hands back,
// since a caller waits on one handle regardless of how many pages its batch
// was split into.
type multiPageEvent struct {
	events []device.Event
}

func (e multiPageEvent) Wait() error { return device.WaitAll(e.events) }

func (e multiPageEvent) Done() bool {
	for _, evt := range e.events {
		if evt != nil && !evt.Done() {
			return false
		}
	}
	return true
}
