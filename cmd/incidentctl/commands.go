package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/linnemanlabs/warden/internal/incident"
)

const envServer = "WARDEN_SERVER"

type rootOptions struct {
	server  string
	timeout time.Duration
	output  string
}

func (o *rootOptions) client() (*client, error) {
	return newClient(o.server, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	defaultServer := os.Getenv(envServer)
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	root := &cobra.Command{
		Use:           "incidentctl",
		Short:         "Submit and manage incidents on a warden server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.output != "table" && opts.output != "json" {
				return fmt.Errorf("--output must be table or json, got %q", opts.output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "Warden API base URL (env "+envServer+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Per-request timeout")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")

	root.AddCommand(
		newSubmitCmd(opts),
		newListCmd(opts),
		newGetCmd(opts),
		newStatusCmd(opts),
		newExecuteCmd(opts),
		newSampleCmd(opts),
	)
	return root
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var file string
	var raw bool

	cmd := &cobra.Command{
		Use:   "submit [description]",
		Short: "Create an incident from free text or a JSON alert",
		Long: `Submit sends an alert to the ingestion pipeline.

The description is taken from the argument, or from --file ("-" reads stdin).
With --json the input is sent as a structured JSON alert instead of a string.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			description, err := encodeDescription(input, raw)
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.create(cmd.Context(), description)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			printIncident(out, res.Data)
			if res.Degraded {
				fmt.Fprintln(out, "note: analysis degraded, manual review required")
			}
			if res.Action != nil {
				fmt.Fprintln(out)
				printAction(out, res.Action)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the description from a file (- for stdin)")
	cmd.Flags().BoolVar(&raw, "json", false, "Treat the input as a structured JSON alert")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all incidents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			incs, err := c.list(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), incs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tACTION\tTARGET\tASSIGNEE\tTITLE")
			for _, inc := range incs {
				action, target, assignee := "-", "-", "-"
				if a := inc.Analysis; a != nil {
					action = string(a.Action)
					target = orDash(a.TargetOrEmpty())
					assignee = orDash(a.AssigneeOrEmpty())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					inc.ID, inc.Status, inc.Priority, action, target, assignee, inc.Title)
			}
			return tw.Flush()
		},
	}
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			inc, err := c.get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), inc)
			}
			printIncident(cmd.OutOrStdout(), inc)
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <status>",
		Short:     "Move an incident to a new lifecycle status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"open", "investigating", "resolved", "closed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status := strings.ToLower(args[1])
			if !incident.Status(status).Valid() {
				return fmt.Errorf("unknown status %q (want open, investigating, resolved or closed)", args[1])
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			inc, err := c.setStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), inc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", inc.ID, inc.Status)
			return nil
		},
	}
}

func newExecuteCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "execute [id]",
		Short: "Dispatch the recommended remediation for an incident",
		Args: func(_ *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("--all does not take an incident id")
			case !all && len(args) != 1:
				return errors.New("an incident id is required (or use --all)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if all {
				res, err := c.executeAll(cmd.Context())
				if err != nil {
					return err
				}
				if opts.output == "json" {
					return printJSON(out, res)
				}
				for _, ar := range res.Data {
					printAction(out, ar)
					fmt.Fprintln(out)
				}
				s := res.Summary
				fmt.Fprintf(out, "total=%d successful=%d failed=%d skipped=%d\n", s.Total, s.Successful, s.Failed, s.Skipped)
				return nil
			}

			ar, err := c.execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(out, ar)
			}
			printAction(out, ar)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Dispatch every executable incident")
	return cmd
}

func newSampleCmd(opts *rootOptions) *cobra.Command {
	var submit bool

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Fetch a generated error log sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			text, err := c.sample(cmd.Context())
			if err != nil {
				return err
			}
			if !submit {
				_, err := io.WriteString(cmd.OutOrStdout(), text)
				return err
			}
			description, err := json.Marshal(text)
			if err != nil {
				return err
			}
			res, err := c.create(cmd.Context(), description)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printIncident(cmd.OutOrStdout(), res.Data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit the sample as a new incident")
	return cmd
}

func readInput(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass either a description argument or --file, not both")
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file) //nolint:gosec // path is supplied by the operator
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(b), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("a description is required")
	}
}

func encodeDescription(input string, raw bool) (json.RawMessage, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("description is empty")
	}
	if raw {
		if !json.Valid([]byte(input)) {
			return nil, errors.New("--json input is not valid JSON")
		}
		return json.RawMessage(input), nil
	}
	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printIncident(w io.Writer, inc *incident.Incident) {
	if inc == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", inc.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", inc.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", inc.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", inc.Priority)
	fmt.Fprintf(tw, "Created:\t%s\n", inc.CreatedAt.Format(time.RFC3339))
	if a := inc.Analysis; a != nil {
		fmt.Fprintf(tw, "Type:\t%s\n", a.Type)
		fmt.Fprintf(tw, "Action:\t%s\n", a.Action)
		fmt.Fprintf(tw, "Target:\t%s\n", orDash(a.TargetOrEmpty()))
		fmt.Fprintf(tw, "Assigned to:\t%s\n", orDash(a.AssigneeOrEmpty()))
		fmt.Fprintf(tw, "Recommendation:\t%s\n", a.Recommendation)
	}
	_ = tw.Flush()
}

func printAction(w io.Writer, ar *incident.ActionResult) {
	if ar == nil {
		return
	}
	outcome := "ok"
	if !ar.Success {
		outcome = "failed"
		if ar.Reason != "" {
			outcome += " (" + string(ar.Reason) + ")"
		}
	}
	fmt.Fprintf(w, "%s %s: %s\n", ar.IncidentID, ar.Action, outcome)
	fmt.Fprintf(w, "  %s\n", ar.Message)
	if ar.ExecutionID != nil {
		fmt.Fprintf(w, "  execution: %s\n", *ar.ExecutionID)
	}
	if auto := ar.Autonomous; auto != nil {
		fmt.Fprintf(w, "  autonomous follow-up: success=%t %s\n", auto.Success, auto.Message)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
