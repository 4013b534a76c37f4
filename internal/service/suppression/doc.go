// Package suppression implements the suppression list service.
//
// This is the single source of truth for whether an email address should
// receive campaign mail. Entries come from the tracking service's
// unsubscribe endpoints and from manual admin actions, and are checked by
// the dispatcher before every send.
//
// The service layer normalizes addresses and depends on the Repository
// interface defined in repository.go. The Redis implementation lives in
// internal/suppression.
package suppression
