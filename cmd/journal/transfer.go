package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/internal/config"
	"github.com/spf13/cobra"
)

func newExportCmd(cfg func() config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of the locally stored posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				if output == "-" {
					return a.transfer.Export(cmd.Context(), cmd.OutOrStdout())
				}

				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := a.transfer.Export(cmd.Context(), f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", application.ExportFilename, `Backup file, "-" for stdout`)
	return cmd
}

func newImportCmd(cfg func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all posts with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			return withApp(cmd, cfg(), func(a *app) error {
				n, err := a.transfer.Import(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts\n", n)
				return nil
			})
		},
	}
}
