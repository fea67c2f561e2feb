package cli

import (
	"context"
	"fmt"

	"github.com/barterdesk/barterdesk/internal/client/api"
)

// Browse lists marketplace items through the authenticated client. Without a
// stored credential the server will reject the call; the gate sends the
// request anyway and the rejection is reported as-is.
func (a *App) Browse(ctx context.Context) error {
	items, err := a.api.Items(ctx)
	if err != nil {
		if api.IsUnavailable(err) {
			fmt.Println("Server unavailable, try again later.")
		} else {
			fmt.Println("Could not fetch items:", err)
		}
		return err
	}

	if len(items) == 0 {
		fmt.Println("No items yet.")
		return nil
	}
	for _, item := range items {
		fmt.Printf("- %s (offered by %s)\n", item.Title, item.Owner)
	}
	return nil
}
