// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

// =============================================================================
// LOG TYPE
// =============================================================================

// Log is an ordered, append-only sequence of messages. Insertion order is
// display order; nothing edits or removes a message once appended.
//
// Log is not safe for concurrent use. The chat controller mutates it only
// from the Bubble Tea update loop, which is single-threaded by construction.
type Log struct {
	messages []*Message
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message to the end of the log.
func (l *Log) Append(msg *Message) {
	if msg == nil {
		return
	}
	l.messages = append(l.messages, msg)
}

// Replace swaps the entire contents for the given sequence, verbatim and in
// order. It exists for the one-shot history load at session activation,
// which runs before any send is possible; it is not an edit operation.
func (l *Log) Replace(msgs []*Message) {
	replaced := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		replaced = append(replaced, m)
	}
	l.messages = replaced
}

// Messages returns the log contents in insertion order. The returned slice
// is a copy; callers cannot reorder the log through it.
func (l *Log) Messages() []*Message {
	out := make([]*Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	return len(l.messages)
}

// Last returns the most recently appended message, or nil when empty.
func (l *Log) Last() *Message {
	if len(l.messages) == 0 {
		return nil
	}
	return l.messages[len(l.messages)-1]
}

// IsEmpty reports whether the log holds no messages.
func (l *Log) IsEmpty() bool {
	return len(l.messages) == 0
}
