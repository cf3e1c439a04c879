package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javajack/xlbind"
)

func importCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Convert an xlsx workbook to a Grid Snapshot (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := xlbind.ImportPath(args[0], a.cfg.Options(a.logger)...)
			if err != nil {
				return err
			}
			a.reportIssues(res.Issues)

			w, closeFn, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Workbook); err != nil {
				closeFn()
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "snapshot file (default stdout)")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <snapshot.json>",
		Short: "Convert a Grid Snapshot to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := readWorkbook(args[0])
			if err != nil {
				return err
			}
			return a.writeWorkbook(cmd, book, out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "xlsx file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func describeCmd(a *app) *cobra.Command {
	var bindingsPath string
	cmd := &cobra.Command{
		Use:   "describe <workbook.xlsx|snapshot.json>",
		Short: "Print a readable outline of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, issues, err := readWorkbook(args[0], a.cfg.Options(a.logger)...)
			if err != nil {
				return err
			}
			a.reportIssues(issues)

			var bindings []xlbind.FieldBinding
			if bindingsPath != "" {
				if bindings, err = readBindings(bindingsPath); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), xlbind.DescribeWorkbook(book, bindings...))
			return nil
		},
	}
	cmd.Flags().StringVarP(&bindingsPath, "bindings", "b", "", "bindings file to annotate bound cells")
	return cmd
}

func (a *app) writeWorkbook(cmd *cobra.Command, book *xlbind.Workbook, out string) error {
	w, closeFn, err := output(out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := xlbind.Export(book, w, a.cfg.Options(a.logger)...); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func (a *app) reportIssues(issues []xlbind.ConversionIssue) {
	for _, is := range issues {
		a.logger.Warn("conversion issue",
			zap.String("sheet", is.Sheet),
			zap.String("cell", is.Ref),
			zap.Error(is.Err))
	}
}
