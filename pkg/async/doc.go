// Package async runs work in the background and hands back a Future.
//
// A Future is completed exactly once. Callers wait for it with Await, bound
// the wait with AwaitContext or AwaitWithTimeout, select on Done, or poll
// with IsComplete.
//
//	f := async.Run(ctx, func(ctx context.Context) error {
//		return store.MarkRead(ctx, id)
//	})
//	...
//	if _, err := f.Await(); err != nil {
//		...
//	}
//
// If ctx is already canceled when the work is scheduled, the function is
// not called and the Future completes with ctx.Err().
package async
