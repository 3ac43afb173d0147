// Package devserver is an in-memory notifications backend for local
// development and end-to-end tests of the client packages.
//
// It serves the REST surface the apiclient package speaks and the push channel
// the realtime package dials, both under /notifications. Requests carrying an
// "Upgrade: websocket" header are upgraded; everything else is REST. Identity
// is taken from the X-User-ID header or the userId query parameter.
//
// Every state change is pushed to the owner's open sockets: new records as
// notification frames and mutations as UNREAD_COUNT frames.
//
// Nothing is persisted.
package devserver
