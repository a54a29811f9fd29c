package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/makeprof/pkgs/export"
	"github.com/aledsdavies/makeprof/pkgs/formatter"
	"github.com/aledsdavies/makeprof/pkgs/graph"
	"github.com/aledsdavies/makeprof/pkgs/lexer"
	"github.com/aledsdavies/makeprof/pkgs/snapshot"
)

func newParseCmd(a *app) *cobra.Command {
	var tokens, asJSON bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Print the parsed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokens && asJSON {
				return usageError("--tokens and --json cannot be combined", "")
			}

			if tokens {
				content, _, err := a.readInput()
				if err != nil {
					return err
				}
				toks, err := lexer.Tokenize(bytes.NewReader(content), lexer.WithLogger(a.logger))
				if err != nil {
					return err
				}
				for _, tok := range toks {
					_, _ = fmt.Fprintln(a.stdout, tok.String())
				}
				return nil
			}

			result, source, err := a.load()
			if err != nil {
				return err
			}
			if asJSON {
				return export.WriteJSON(a.stdout, export.Build(result.Document, result.Graph).
					WithSource(source).
					WithDigest(result.Digest))
			}
			formatter.FormatDocument(a.stdout, result.Document)
			return nil
		},
	}

	cmd.Flags().BoolVar(&tokens, "tokens", false, "Print the raw token stream instead")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full JSON report")
	return cmd
}

func newGraphCmd(a *app) *cobra.Command {
	var format string
	var rejectCycles bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print direct and indirect influences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []graph.BuildOpt
			if rejectCycles {
				extra = append(extra, graph.WithRejectCycles())
			}

			switch format {
			case "text", "dot", "json":
			default:
				return usageError(fmt.Sprintf("unknown format %q", format), "use --format text, dot or json")
			}

			result, source, err := a.load(extra...)
			if err != nil {
				return err
			}

			switch format {
			case "dot":
				formatter.FormatDOT(a.stdout, result.Graph)
			case "json":
				return export.WriteJSON(a.stdout, export.Build(result.Document, result.Graph).
					WithSource(source).
					WithDigest(result.Digest))
			default:
				formatter.FormatGraph(a.stdout, result.Graph, a.useColor())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, dot or json")
	cmd.Flags().BoolVar(&rejectCycles, "reject-cycles", false, "Fail when the influence graph has a cycle")
	return cmd
}

func newBlastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blast <target>",
		Short: "Show everything rebuilt when a target changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := a.load()
			if err != nil {
				return err
			}

			name := args[0]
			if !result.Graph.Has(name) {
				hint := ""
				if match := findClosestMatch(name, result.Graph.Names()); match != "" {
					hint = fmt.Sprintf("did you mean %q?", match)
				}
				return usageError(fmt.Sprintf("unknown target %q", name), hint)
			}

			formatter.FormatBlastTree(a.stdout, result.Graph, name, a.useColor())
			return nil
		},
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the analysis to a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, source, err := a.load()
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return ioError("error creating snapshot", err)
			}
			digest, err := snapshot.Write(f, snapshot.New(source, result.Document, result.Graph))
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
			if err != nil {
				return ioError("error writing snapshot", err)
			}

			_, _ = fmt.Fprintf(a.stdout, "%s %s\n", hex.EncodeToString(digest[:]), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Snapshot file to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <snapshot>",
		Short: "Compare a stored snapshot with the current makefile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return ioError("error opening snapshot", err)
			}
			old, oldDigest, err := snapshot.Read(f)
			_ = f.Close()
			if err != nil {
				return ioError(fmt.Sprintf("error reading snapshot %s", args[0]), err)
			}

			result, _, err := a.load()
			if err != nil {
				return err
			}

			if oldDigest == result.Digest {
				a.logger.Debug("snapshot digest unchanged", "digest", hex.EncodeToString(oldDigest[:]))
			}
			_, _ = fmt.Fprint(a.stdout, formatter.FormatDiff(formatter.Diff(old.Graph, result.Graph), a.useColor()))
			return nil
		},
	}
}
