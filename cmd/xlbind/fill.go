package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javajack/xlbind"
)

var errInvalidBindings = errors.New("binding table has errors")

func fillCmd(a *app) *cobra.Command {
	var templatePath, recordPath, bindingsPath, sheetName, out string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Project a record onto a template workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Options(a.logger)

			var doc *xlbind.Document
			if templatePath == "" {
				doc = xlbind.NewBlankDocument(opts...)
			} else {
				book, issues, err := readWorkbook(templatePath, opts...)
				if err != nil {
					return err
				}
				a.reportIssues(issues)
				doc = xlbind.NewDocument(book, opts...)
			}

			if sheetName != "" {
				sheet, err := doc.Snapshot().SheetByName(sheetName)
				if err != nil {
					return err
				}
				if err := doc.SetActiveSheet(sheet.ID); err != nil {
					return err
				}
			}

			record, err := readRecord(recordPath)
			if err != nil {
				return err
			}
			bindings := xlbind.DefaultBindings()
			if bindingsPath != "" {
				if bindings, err = readBindings(bindingsPath); err != nil {
					return err
				}
			}

			res, err := doc.Reconcile(record, bindings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "written %d, restored %d, unresolved %d\n",
				res.Written, res.Restored, res.Unresolved)

			w, closeFn, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := doc.Export(w); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "template workbook (xlsx or snapshot JSON); blank when omitted")
	cmd.Flags().StringVarP(&recordPath, "record", "r", "", "record file (JSON or YAML)")
	cmd.Flags().StringVarP(&bindingsPath, "bindings", "b", "", "bindings file (default: stock bindings)")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet to fill (default: first)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "xlsx file")
	_ = cmd.MarkFlagRequired("record")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func validateCmd(a *app) *cobra.Command {
	var bindingsPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a bindings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings, err := readBindings(bindingsPath)
			if err != nil {
				return err
			}
			issues := xlbind.ValidateBindings(bindings)
			for _, is := range issues {
				fmt.Fprintln(cmd.OutOrStdout(), is.String())
			}
			if xlbind.HasErrors(issues) {
				return errInvalidBindings
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bindings OK\n", len(bindings))
			return nil
		},
	}
	cmd.Flags().StringVarP(&bindingsPath, "bindings", "b", "", "bindings file")
	_ = cmd.MarkFlagRequired("bindings")
	return cmd
}
