// Package protocol defines the messages exchanged between the host and the brick
// and their JSON encoding. Every exchange is one Command answered by one Response.
package protocol
