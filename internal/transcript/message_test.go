// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"strings"
	"testing"
)

func TestSenderDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		sender Sender
		want   string
	}{
		{"user", SenderUser, "You"},
		{"nila", SenderNila, "Nila"},
		{"unknown passes through", Sender("system"), "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sender.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello there")

	if msg.Sender != SenderUser {
		t.Errorf("Sender = %q, want %q", msg.Sender, SenderUser)
	}
	if msg.Text != "hello there" {
		t.Errorf("Text = %q, want %q", msg.Text, "hello there")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.Stamp == "" {
		t.Error("Stamp is empty, want a clock stamp captured at creation")
	}
}

func TestNewNilaMessage(t *testing.T) {
	msg := NewNilaMessage("vanakkam!")

	if msg.Sender != SenderNila {
		t.Errorf("Sender = %q, want %q", msg.Sender, SenderNila)
	}
	if msg.Text != "vanakkam!" {
		t.Errorf("Text = %q, want %q", msg.Text, "vanakkam!")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	// Rapid reveals mint several messages within the same tick; IDs must
	// still be distinct.
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := generateID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID %q after %d mints", id, i)
		}
		seen[id] = struct{}{}
	}
}
