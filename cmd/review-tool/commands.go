package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"bitbucket.org/mmdatafocus/inventory_review/workflow"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format        string // "json" | "text"
	RedisAttempts int
}

var validFormats = []string{"text", "json"}

// bootstrapFunc is replaced in tests.
var bootstrapFunc = func(ctx context.Context, attempts int) (*workflow.Runtime, error) {
	return workflow.Bootstrap(ctx, config.LoadSettings(), attempts)
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "review-tool",
		Short: "Operator tasks for the inventory review tables",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.RedisAttempts, "redis-attempts", 5, "redis connection attempts when REDIS_ADDRESS is set")

	cmd.AddCommand(newAutoFinalizeCommand(opts))
	cmd.AddCommand(newReclaimCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newHashPasswordCommand())
	return cmd
}

func withService(cmd *cobra.Command, opts *RootOptions, fn func(svc *workflow.Service) error) error {
	rt, err := bootstrapFunc(cmd.Context(), opts.RedisAttempts)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt.Service)
}

func newAutoFinalizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auto-finalize",
		Short: "Move every pending record with confidence score 100 to the finalized table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(svc *workflow.Service) error {
				moved, err := svc.AutoFinalize(cmd.Context())
				if err != nil {
					return err
				}
				return writeSkus(cmd.OutOrStdout(), opts.Format, "moved", moved)
			})
		},
	}
}

func newReclaimCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim",
		Short: "Release assignments older than the processing timeout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(svc *workflow.Service) error {
				released, err := svc.Reclaim(cmd.Context())
				if err != nil {
					return err
				}
				return writeSkus(cmd.OutOrStdout(), opts.Format, "released", released)
			})
		},
	}
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pending and finalized record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(svc *workflow.Service) error {
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return writeStats(cmd.OutOrStdout(), opts.Format, stats)
			})
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for BASIC_AUTH_PASSWORD_HASH",
		Long:  "Print a bcrypt hash for BASIC_AUTH_PASSWORD_HASH. Without an argument the password is read from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password is empty")
			}
			hashed, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
			return nil
		},
	}
}

func writeSkus(w io.Writer, format, label string, skus []string) error {
	if skus == nil {
		skus = []string{}
	}
	if format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{label: skus, "count": len(skus)})
	}
	fmt.Fprintf(w, "%s %d record(s)\n", label, len(skus))
	for _, sku := range skus {
		fmt.Fprintln(w, "  "+sku)
	}
	return nil
}

func writeStats(w io.Writer, format string, stats *workflow.Stats) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(stats)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"State", "Records"})
	table.Append([]string{"eligible", strconv.Itoa(stats.Eligible)})
	table.Append([]string{"assigned", strconv.Itoa(stats.Assigned)})
	table.Append([]string{"stale", strconv.Itoa(stats.Stale)})
	table.Append([]string{"processed", strconv.Itoa(stats.Processed)})
	table.Append([]string{"finalized", strconv.Itoa(stats.Finalized)})
	table.Render()
	return nil
}
