// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jeranaias/nila-tui/internal/util"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies which side of the conversation a message belongs to.
// It is a closed two-value tag; the string values match what the
// conversation service puts on the wire.
type Sender string

const (
	SenderUser Sender = "user"
	SenderNila Sender = "nila"
)

// String returns the wire representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderNila:
		return "Nila"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat bubble. Fields are immutable after creation.
type Message struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`

	// Stamp is the short clock string captured when the message was
	// minted (or, for history entries, the stamp the service sent).
	Stamp string `json:"time"`
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(text string) *Message {
	return &Message{
		ID:     generateID(),
		Sender: SenderUser,
		Text:   text,
		Stamp:  util.ClockStamp(time.Now()),
	}
}

// NewNilaMessage creates a companion message stamped with the current time.
func NewNilaMessage(text string) *Message {
	return &Message{
		ID:     generateID(),
		Sender: SenderNila,
		Text:   text,
		Stamp:  util.ClockStamp(time.Now()),
	}
}

// NewHistoryMessage creates a message from a history entry, keeping the
// stamp the service recorded verbatim.
func NewHistoryMessage(sender Sender, text, stamp string) *Message {
	return &Message{
		ID:     generateID(),
		Sender: sender,
		Text:   text,
		Stamp:  stamp,
	}
}

// generateID mints a unique message ID. Random IDs cannot collide the way
// timestamp-derived IDs do when several bubbles are minted within the same
// tick; the timestamp form is only a fallback if the random source fails.
func generateID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("msg_%d", time.Now().UnixNano())
	}
	return "msg_" + hex.EncodeToString(bytes)
}
