// Package id provides ID generation helpers used across the gateway.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 12

const (
	PrefixMessage  = "msg"
	PrefixToolCall = "tool"
	PrefixContext  = "ctx"
	PrefixTurn     = "turn"
	PrefixGuest    = "guest"
)

// GuestTokenLength matches the entropy of a 32-byte urlsafe token.
const GuestTokenLength = 43

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewWithLength(prefix string, length int) string {
	id, err := nanoid.New(length)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewMessage() string  { return New(PrefixMessage) }
func NewToolCall() string { return New(PrefixToolCall) }
func NewContext() string  { return New(PrefixContext) }
func NewTurn() string     { return New(PrefixTurn) }

// NewGuestToken mints a bearer token for anonymous sessions. The prefix is
// load-bearing: the token validator routes on it.
func NewGuestToken() string { return NewWithLength(PrefixGuest, GuestTokenLength) }
