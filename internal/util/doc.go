// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the nila client and
// service.
//
// File Operations:
//   - WriteFileAtomic: crash-safe file writing with fsync
//
// Formatting:
//   - ClockStamp: the short clock form message bubbles carry ("03:04 PM")
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
package util
