// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm talks to the upstream language model that writes Nila's
// replies. The wire format is OpenRouter-style chat completions, so
// any compatible gateway works.
//
// # Key Types
//
//   - Client: the upstream HTTP client
//   - Message: one role/content pair of conversation history
//
// # Usage
//
//	client := llm.New(apiKey, llm.WithModel("google/gemini-2.0-flash-exp:free"))
//	raw, err := client.Reply(ctx, history)
//	bubbles := llm.SplitReply(raw)
//
// The Nila persona ships as a package constant and is sent as the
// system instruction on every request; callers only supply history.
// Replies come back as a single string which SplitReply breaks into
// chat bubbles on the | delimiter the persona mandates.
package llm
