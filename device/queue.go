// Package device defines the command-queue abstraction the scheduler
// submits decode work through, and ships a synchronous CPU reference
// implementation of it.
package device

import "errors"

// BaseAddressAlignment is the alignment a Queue's pinned staging regions
// must respect when carved into per-request sub-buffers, mirroring a GPU
// device's minimum sub-buffer alignment requirement.
const BaseAddressAlignment = 128

// ErrDeviceUnsupported is returned by a Queue when asked to perform an
// operation its backing device cannot carry out at all (as opposed to a
// transient failure).
var ErrDeviceUnsupported = errors.New("device: operation unsupported by this queue")

// ErrInteropFailure is returned when acquiring or releasing a shared pixel
// buffer against a graphics API fails.
var ErrInteropFailure = errors.New("device: graphics interop acquire/release failed")

// ErrOutOfResources is returned when a queue cannot allocate the scratch or
// staging memory a submission requires.
var ErrOutOfResources = errors.New("device: insufficient device resources")

// Event represents the completion of one submission. Wait blocks until the
// submission finishes and returns any error it failed with.
type Event interface {
	Wait() error
	Done() bool
}

// PixelBuffer is a pixel store shared with a graphics API. Acquire must be
// called before the device writes to it and Release after, bracketing the
// device's access the way an OpenCL/OpenGL interop buffer requires.
type PixelBuffer interface {
	Acquire() error
	Release() error
	Bytes() []byte
}

// Queue is a command queue abstraction: enqueue a host-to-device copy,
// enqueue a unit of decode work, and synchronize via Events. Submissions
// are async in spirit even when, as with CPUQueue, the implementation
// actually runs them synchronously.
type Queue interface {
	// EnqueueCopy copies src into dst once every event in wait has
	// completed, returning an Event for the copy itself.
	EnqueueCopy(dst, src []byte, wait []Event) (Event, error)

	// EnqueueKernel runs fn once every event in wait has completed,
	// returning an Event for the run.
	EnqueueKernel(fn func() error, wait []Event) (Event, error)

	// BaseAddressAlignment reports this queue's minimum sub-buffer
	// alignment.
	BaseAddressAlignment() int
}

// readyEvent is an already-completed Event, returned by CPUQueue since its
// submissions run synchronously inline.
type readyEvent struct {
	err error
}

func (e readyEvent) Wait() error { return e.err }
func (e readyEvent) Done() bool  { return true }

// WaitAll blocks on every event in evts, returning the first error
// encountered, if any.
func WaitAll(evts []Event) error {
	for _, e := range evts {
		if e == nil {
			continue
		}

		if err := e.Wait(); err != nil {
			return err
		}
	}

	return nil
}
