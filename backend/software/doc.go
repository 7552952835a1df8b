// Package software implements mailbox.Device on the CPU.
//
// Color buffers are *image.RGBA. Commands run in submission order on a
// single queue goroutine, which stands in for the GPU: a fence is a point
// in that queue, WaitFence enqueues a wait, and Blit enqueues a copy
// scaled with golang.org/x/image/draw. Compositors draw into a render
// target through Device.Draw so their work is ordered with everything
// else.
//
// The backend registers itself as backend.NameSoftware:
//
//	import _ "github.com/gogpu/mailbox/backend/software"
package software
