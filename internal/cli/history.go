// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - The `nila history` handler: prints the stored transcript.
//
// USABILITY: markdown rendering only when stdout is a TTY, so piped
// output stays machine-readable.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/session"
	"github.com/jeranaias/nila-tui/internal/transcript"
)

// historyTimeout bounds the transcript fetch.
const historyTimeout = 15 * time.Second

// HandleHistory fetches the caller's conversation and prints it. A TTY
// gets a glamour-rendered transcript; anything else gets one plain line
// per message.
func HandleHistory(args Args) error {
	store, err := CredentialStore()
	if err != nil {
		return err
	}
	guard := session.NewGuard(store)

	credential, intent := guard.Require()
	if intent == session.IntentLogin {
		return errors.New("not logged in - run `nila login` first")
	}

	client, err := NewServiceClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	entries, err := client.FetchHistory(ctx, credential)
	if guard.Resolve(err) == session.IntentLogin {
		return errors.New("session expired - run `nila login` again")
	}
	if err != nil {
		if errors.Is(err, api.ErrUnreachable) {
			return fmt.Errorf("can't reach %s - is the service running?", client.BaseURL())
		}
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}

	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(historyMarkdown(entries)))
	} else {
		fmt.Print(historyPlain(entries))
	}
	return nil
}

// =============================================================================
// TRANSCRIPT LAYOUT
// =============================================================================

// historyMarkdown lays the transcript out as a markdown document, one
// heading per message with the service's stamp kept verbatim.
func historyMarkdown(entries []api.HistoryEntry) string {
	var b strings.Builder
	b.WriteString("# Conversation with Nila\n")
	for _, e := range entries {
		name := transcript.Sender(e.Sender).DisplayName()
		fmt.Fprintf(&b, "\n**%s** · %s\n\n%s\n", name, e.Time, e.Text)
	}
	return b.String()
}

// historyPlain emits one tab-friendly line per message.
func historyPlain(entries []api.HistoryEntry) string {
	var b strings.Builder
	for _, e := range entries {
		name := transcript.Sender(e.Sender).DisplayName()
		fmt.Fprintf(&b, "%s\t%s\t%s\n", e.Time, name, e.Text)
	}
	return b.String()
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders markdown for terminal display. Any renderer
// failure falls back to the raw text.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(historyWrapWidth()),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// historyWrapWidth caps transcript wrapping at 80 columns.
func historyWrapWidth() int {
	width := GetTerminalWidth()
	if width > 80 {
		width = 80
	}
	return width
}
