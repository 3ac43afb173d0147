// Package provider is the single owner of a user's notification state.
//
// A Provider holds one notifications.Store, one realtime.Manager and one
// toast.Presenter, and serves every UI surface (bell, dropdown, listing page)
// from the same state. Consumers read Snapshot or Subscribe for updates and
// call the mutation methods; they never talk to the push channel or the REST
// collaborator directly.
//
//	p := provider.New(api.Remote, cfg.Realtime.BaseURL, provider.WithLogger(log))
//	defer p.Close()
//
//	if err := p.SetUser(ctx, "user-42"); err != nil {
//		// seed failed; Snapshot().Error carries the banner text
//	}
//	sub := p.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
//
// SetUser("") is logout: the connection is closed and the store cleared.
package provider
