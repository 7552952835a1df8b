// Package mailbox hands rendered frames from a producer to a presenter
// through a fixed pool of GPU render slots.
//
// # Overview
//
// A producer (typically an emulation or simulation goroutine) renders into
// a slot it leases from the mailbox and publishes it when done. A presenter
// goroutine, paced by the host display, takes the newest published slot,
// blits it to the screen and keeps it as the retained frame until a newer
// one arrives. Neither side ever blocks the other for longer than a bounded
// wait, and the presenter never shows a frame older than one it has
// already skipped.
//
// # Quick Start
//
//	dev := software.New()
//	mb, err := mailbox.New(dev, mailbox.WithMaxWait(pacer.MaxWait(100, true)))
//	if err != nil {
//	    return err
//	}
//	defer mb.Close()
//
//	// producer goroutine
//	slot, err := mb.GetRenderFrame()
//	...
//	mb.ReleaseRenderFrame(slot)
//
//	// presenter goroutine
//	if slot, ok := mb.TryGetPresentFrame(); ok {
//	    ...
//	}
//
// Most callers use package render, which drives the full fence protocol
// on top of these four calls.
//
// # Slot lifecycle
//
// Every slot is in exactly one place at any time: the free queue, leased to
// the producer, queued for presentation, or retained by the presenter.
//
//	free --GetRenderFrame--> leased --ReleaseRenderFrame--> queued
//	queued --TryGetPresentFrame--> retained --next TryGetPresentFrame--> free
//	queued --reclaim / frame skip / ResetPresent--> free
//
// The mailbox mutex guards only this bookkeeping. GPU fences carried by a
// slot are waited on by the producer and presenter outside the lock.
//
// # Backends
//
// The GPU side is abstracted by [Device]. Package backend/software runs the
// command stream on a goroutine over image.RGBA buffers; backend/wgpu drives
// a gogpu/wgpu HAL device. Both register themselves with package backend.
package mailbox
