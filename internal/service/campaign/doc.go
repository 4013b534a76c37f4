// Package campaign implements the campaign dispatcher.
//
// A dispatch takes one campaign request and, unless it is scheduled for the
// future, runs every recipient through suppression check, personalization,
// rendering and delivery. It depends on the interfaces in this package and
// in service/sending, and should never import from api/ or worker/.
//
// Nothing is persisted: outcomes live only in the returned DispatchResult.
package campaign
