// Package wire implements the binary request/response protocol shared by
// client-to-handler and handler-to-replica connections.
//
// Every message is framed with a 4-byte big-endian length prefix followed by
// exactly that many payload bytes. The payload itself is a tag-prefixed
// encoding of one of the message types below: the first byte identifies the
// variant, the remaining bytes are its fields in a fixed order. Tag values
// are frozen; do not renumber them, only append.
package wire
