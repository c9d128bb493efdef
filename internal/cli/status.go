// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - The `nila status` handler: service reachability and
// session state at a glance.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/nila-tui/internal/api"
	"github.com/jeranaias/nila-tui/internal/session"
	"github.com/jeranaias/nila-tui/internal/ui/styles"
)

// statusTimeout bounds the reachability probe.
const statusTimeout = 5 * time.Second

// HandleStatus pings the service and reports whether a session
// credential is stored. It never touches a privileged route, so an
// expired token is reported as present; the first real call sorts
// that out.
func HandleStatus(args Args) error {
	client, err := NewServiceClient(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	status, err := client.Status(ctx)
	switch {
	case errors.Is(err, api.ErrUnreachable):
		fmt.Println(styles.RenderError("service: unreachable at " + client.BaseURL()))
	case err != nil:
		fmt.Println(styles.RenderError("service: error - " + err.Error()))
	default:
		fmt.Println(styles.RenderSuccess("service: " + status + " at " + client.BaseURL()))
	}

	store, storeErr := CredentialStore()
	if storeErr != nil {
		return storeErr
	}

	if _, intent := session.NewGuard(store).Require(); intent == session.IntentLogin {
		fmt.Println(styles.RenderInfo("session: not logged in"))
	} else {
		fmt.Println(styles.RenderSuccess("session: credential stored at " + store.Path()))
	}

	// Reachability failures surface in the exit code so scripts can
	// probe with `nila status`.
	if err != nil {
		return errors.New("service check failed")
	}
	return nil
}
