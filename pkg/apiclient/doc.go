// Package apiclient is the REST collaborator for notifications.
//
// A Client speaks the notification endpoints:
//
//	GET    /notifications?unreadOnly=<bool>
//	GET    /notifications/unread-count
//	PATCH  /notifications/{id}/read        {"read": true}
//	POST   /notifications/mark-all-read
//	DELETE /notifications/{id}
//
// ForUser returns a copy bound to one user; it implements
// notifications.Remote. The method value Client.Remote fits
// provider.RemoteFactory directly:
//
//	api := apiclient.New(cfg.BaseURL, apiclient.WithToken(token))
//	p := provider.New(api.Remote, pushURL)
//
// Non-2xx responses are returned as *HTTPError; use IsStatus to test for a
// specific code.
package apiclient
