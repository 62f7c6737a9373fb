// Package client implements the client side of the handler-facing wire
// protocol: dial, send one framed Request, read back one framed
// ResponseMessage, close. There is no connection pooling or retry here -
// one TCP connection per logical request, the same shape the reference
// client this was adapted from uses.
package client
