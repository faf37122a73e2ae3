// Package invite implements an invitation lifecycle backend: authenticated
// users invite others by email, each invitation carries a QR code pointing at
// an acceptance link, and the unauthenticated acceptance request moves the
// invitation from pending to accepted.
//
// Lifecycle:
//   - An Invitation is either pending or accepted. Accepted is terminal and
//     the store only transitions rows that are still pending, so a second
//     acceptance reports NotFound.
//   - At most one pending invitation exists per invitee email. The storage
//     layer enforces it with a partial unique index, so concurrent creates
//     resolve to exactly one winner and DuplicateInvite for the rest.
//
// Collaborators:
//   - ObjectStore stores the rendered QR image and returns its URL.
//   - Notifier sends the invitation email. The Dispatcher runs sends on its
//     own workers after the invitation is stored; failures are logged and
//     recorded through the ActivitySink, never returned to the caller.
//   - IdentityResolver turns a bearer credential into a Caller with a parsed
//     Role. AccessPolicy decides which roles may invite.
package invite
