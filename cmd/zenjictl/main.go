// Command zenjictl is the control CLI for a running zenjid daemon. It speaks
// the same HTTP API as the dashboard, authenticating with a bearer token read
// from a file.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	addr      string
	tokenFile string
)

func main() {
	root := &cobra.Command{
		Use:           "zenjictl",
		Short:         "Control a running zenjid daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://localhost:7439", "daemon address")
	root.PersistentFlags().StringVar(&tokenFile, "token-file", defaultTokenFile(), "file holding the daemon API token")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push or pull the cloud document",
	}
	syncCmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Push local state to the cloud",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd.OutOrStdout(), http.MethodPost, "/api/sync/push")
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Pull the cloud document and merge it locally",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd.OutOrStdout(), http.MethodPost, "/api/sync/pull")
			},
		},
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the daemon's session status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd.OutOrStdout(), http.MethodGet, "/api/session")
			},
		},
		syncCmd,
		&cobra.Command{
			Use:   "clear",
			Short: "Delete all local data, secrets included",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd.OutOrStdout(), http.MethodDelete, "/api/data")
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zenjictl:", err)
		os.Exit(1)
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "zenjid.token"
	}
	return filepath.Join(home, ".config", "zenjid", "token")
}

// call performs one API request and pretty-prints the reply payload.
func call(out io.Writer, method, path string) error {
	req, err := http.NewRequest(method, strings.TrimRight(addr, "/")+path, nil)
	if err != nil {
		return err
	}
	if token, err := os.ReadFile(tokenFile); err == nil {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(string(token)))
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running at %s? %w", addr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Fprintln(out, strings.TrimSpace(string(body)))
		return nil
	}
	fmt.Fprintln(out, pretty.String())
	return nil
}
