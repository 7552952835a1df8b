// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render drives the frame pipeline on top of a mailbox.
//
// A Renderer owns a mailbox and performs both halves of the fence
// protocol:
//
//   - SwapBuffers runs on the producer goroutine. It leases a slot, waits
//     out the slot's last presentation, resizes the slot if the layout
//     changed, lets the Compositor draw, fences the draw and publishes the
//     slot.
//   - TryPresent runs on the presenter goroutine. It takes the newest
//     slot, rebuilds its present target if the slot was resized, makes
//     the GPU wait for the draw, blits into the surface and fences the
//     blit.
//
// No fence is ever waited on while the mailbox lock is held.
//
// # Quick Start
//
//	dev := software.New()
//	r, err := render.New(dev, compositor, render.WithPacer(pacer.New(100, true)))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	go func() {
//	    for {
//	        if err := r.SwapBuffers(layout); errors.Is(err, mailbox.ErrClosed) {
//	            return
//	        }
//	    }
//	}()
//
//	p := render.NewPresenter(r, surf)
//	err = p.Run(ctx, vsync)
//
// # Direct mode
//
// With WithPresentThread(false) there is no mailbox: SwapBuffers draws
// straight into the surface given by WithSurface and swaps it. TryPresent
// then reports false.
package render
