// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"time"

	"github.com/gogpu/mailbox"
	"github.com/gogpu/mailbox/pacer"
	"github.com/gogpu/mailbox/surface"
)

// DefaultFenceTimeout bounds the producer's CPU wait on a slot's previous
// presentation.
const DefaultFenceTimeout = 100 * time.Millisecond

// Option configures a Renderer.
type Option func(*options)

type options struct {
	poolSize      int
	pacer         *pacer.Pacer
	presentThread bool
	surface       surface.Surface
	filter        mailbox.Filter
	fit           surface.FitMode
	fenceTimeout  time.Duration
	mailboxOpts   []mailbox.Option
}

func defaultOptions() options {
	return options{
		poolSize:      mailbox.DefaultPoolSize,
		presentThread: true,
		filter:        mailbox.FilterLinear,
		fit:           surface.FitStretch,
		fenceTimeout:  DefaultFenceTimeout,
	}
}

// WithPoolSize sets the number of mailbox slots.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithPacer ties the mailbox wait budget to a speed limiter.
func WithPacer(p *pacer.Pacer) Option {
	return func(o *options) {
		o.pacer = p
	}
}

// WithPresentThread selects between the mailbox pipeline (true, the
// default) and direct drawing to the surface (false).
func WithPresentThread(enabled bool) Option {
	return func(o *options) {
		o.presentThread = enabled
	}
}

// WithSurface sets the surface that direct mode draws into.
func WithSurface(s surface.Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithFilter sets the presentation blit filter. Linear by default.
func WithFilter(f mailbox.Filter) Option {
	return func(o *options) {
		o.filter = f
	}
}

// WithFit sets how frames are placed on the surface.
func WithFit(m surface.FitMode) Option {
	return func(o *options) {
		o.fit = m
	}
}

// WithFenceTimeout bounds the producer's CPU wait on a present fence.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fenceTimeout = d
	}
}

// WithMailboxOptions passes extra options to mailbox.New.
func WithMailboxOptions(opts ...mailbox.Option) Option {
	return func(o *options) {
		o.mailboxOpts = append(o.mailboxOpts, opts...)
	}
}
