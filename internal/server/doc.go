// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the nila conversation service.
//
// The service fronts a SQLite transcript store and an upstream reply
// model behind a small JSON API:
//
//   - GET  /          - liveness probe
//   - POST /register  - create an account, returns a bearer credential
//   - POST /token     - exchange form credentials for a bearer credential
//   - GET  /history   - the caller's transcript, oldest first (auth)
//   - POST /chat      - append a message, returns Nila's reply fragments (auth)
//
// Every response body is JSON. Errors use a flat {"error": message}
// shape so clients can surface the message directly.
//
// # Middleware
//
// Requests pass through, in order: request ID assignment, real-IP
// resolution, panic recovery, request logging, security headers, CORS
// allowlisting, and per-IP rate limiting. Privileged routes additionally
// require a bearer session token resolved against storage.
//
// # Usage
//
//	store, _ := storage.Open(cfg.DBPath)
//	replies := llm.New(cfg.UpstreamKey, llm.WithModel(cfg.UpstreamModel))
//	srv := server.New(cfg, store, replies)
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
package server
