package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// NewTailCommand constructs the `tail` command, which follows the live
// document feed over the viewer WebSocket channel.
func NewTailCommand() *cobra.Command {
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the live document feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			target := wsAddrFromEnv()
			if filter != "" {
				target += "/?filter=" + url.QueryEscape(filter)
			}
			conn, resp, err := websocket.DefaultDialer.DialContext(cmd.Context(), target, nil)
			if err != nil {
				if resp != nil {
					return fmt.Errorf("dial %s: %w (status %s)", target, err, resp.Status)
				}
				return fmt.Errorf("dial %s: %w", target, err)
			}
			defer conn.Close()

			go func() {
				<-cmd.Context().Done()
				_ = conn.Close()
			}()

			enc := json.NewEncoder(cmd.OutOrStdout())
			for count := 0; limit <= 0 || count < limit; count++ {
				_, payload, err := conn.ReadMessage()
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				_ = enc.Encode(json.RawMessage(payload))
			}
			return nil
		},
	}
	tailCmd.Flags().String("filter", "", "CEL filter (server-side)")
	tailCmd.Flags().Int("limit", 0, "Stop after N documents (0 = infinite)")
	return tailCmd
}
