package middleware

import "github.com/ArnavBalyan/concierge/pkg/ports"

// Middleware wraps a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// RecorderMiddleware wraps an audit recorder to add behavior.
type RecorderMiddleware func(ports.HistoryRecorder) ports.HistoryRecorder

// Chain applies mws to store; the first middleware is the outermost.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
