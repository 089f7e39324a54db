package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/myna-project/xively/httpx"
	"github.com/myna-project/xively/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	configPath string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "xively",
		Short:        "Inspect the xively API with the SDK's shared HTTP client",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "xively.yaml", "config file (optional; XIVELY_* env vars also apply)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(newTokenCmd(), newWatchCmd(), newGetCmd(), newVersionCmd())
	return rootCmd
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Fetch a CSRF token and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(configPath, logLevel)
			if err != nil {
				return err
			}
			res, err := a.conf.LoadCSRFToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", res.Status, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the CSRF token periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(configPath, logLevel)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if res, err := a.conf.LoadCSRFToken(ctx); err == nil {
					a.l.Infof(ctx, "token refreshed (http %d)", res.StatusCode)
				}
				select {
				case <-ctx.Done():
					a.l.Infof(context.Background(), "watch stopped")
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "refresh interval")
	return cmd
}

func newGetCmd() *cobra.Command {
	var withToken bool
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a path relative to base_url and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(configPath, logLevel)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if withToken {
				if res, err := a.conf.LoadCSRFToken(ctx); err != nil {
					return fmt.Errorf("%s: %w", res.Status, err)
				}
			}
			hc, err := a.conf.HTTPClient()
			if err != nil {
				return err
			}
			req, err := hc.NewRequest(ctx, http.MethodGet, args[0], httpx.WithHeader("Accept", "application/json"))
			if err != nil {
				return err
			}
			out, _, err := httpx.DoJSON[any](hc, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&withToken, "csrf", false, "fetch a CSRF token before the request")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			switch output {
			case "json":
				s, err := info.JSON(true)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			case "short":
				fmt.Fprintln(cmd.OutOrStdout(), info.ShortString())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), info.Text())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, short)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
