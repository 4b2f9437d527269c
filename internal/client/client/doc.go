// Package client is the client side of the minsend file exchange.
//
// # Overview
//
// Dial (or New over an existing connection) performs the key exchange,
// starts a background reader and consumes the welcome message. The reader
// separates pushed deliveries from sibling clients, which are handed to a
// DeliveryFunc, from replies to the client's own requests.
//
// Requests are serialized: one is in flight at a time. Cancelling the
// context of a pending request closes the connection, because the reply
// could no longer be matched to its request.
//
// # Error Handling
//
// In-band ERROR replies and failed MSTP statuses wrap common.ErrProtocol;
// a denied sign-in wraps common.ErrorUnauthorized; a broken connection
// wraps common.ErrTransport. Match them with errors.Is.
package client
