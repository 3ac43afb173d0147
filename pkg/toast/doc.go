// Package toast shows the newest pushed notification as a transient alert.
//
// A Presenter holds at most one toast. Show replaces whatever is displayed,
// and each toast hides itself after a fixed duration (5s by default) unless
// dismissed earlier. Toasts are independent of the notification store:
// hiding one neither deletes nor marks the underlying record.
//
//	p := toast.New(toast.WithDuration(5*time.Second), toast.WithChangeHook(render))
//	defer p.Close()
//	p.Show(n)
package toast
