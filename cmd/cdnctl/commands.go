package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/serroba/namecdn/internal/client"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	server string
	token  string
}

func (g *globalFlags) client() (*client.Client, error) {
	server := g.server
	if server == "" {
		server = os.Getenv("CDN_SERVER")
	}

	if server == "" {
		return nil, errors.New("no server: pass --server or set CDN_SERVER")
	}

	token := g.token
	if token == "" {
		token = os.Getenv("CDN_TOKEN")
	}

	return client.New(server, token), nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "cdnctl",
		Short:         "Manage entries on a name CDN",
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&flags.server, "server", "s", "", "CDN base URL (env CDN_SERVER)")
	root.PersistentFlags().StringVarP(&flags.token, "token", "t", "", "management token (env CDN_TOKEN)")

	root.AddCommand(
		newUploadCmd(flags),
		newShortCmd(flags),
		newInfoCmd(flags),
		newDeleteCmd(flags),
	)

	return root
}

func newUploadCmd(flags *globalFlags) *cobra.Command {
	var ext string

	cmd := &cobra.Command{
		Use:   "upload <name> <file>",
		Short: "Upload a file under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			if ext == "" {
				ext = strings.TrimPrefix(filepath.Ext(args[1]), ".")
			}

			if err := c.UploadFile(cmd.Context(), args[0], f, ext); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", args[0])

			return nil
		},
	}
	cmd.Flags().StringVarP(&ext, "ext", "e", "", "extension to record (default: the file's)")

	return cmd
}

func newShortCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "short <name> <url>",
		Short: "Point a name at a URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			if err := c.ShortenURL(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "shortened %s -> %s\n", args[0], args[1])

			return nil
		},
	}
}

func newInfoCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			e, err := c.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:       %s\n", e.Name)
			fmt.Fprintf(w, "Type:       %s\n", e.Kind)

			if e.URL != "" {
				fmt.Fprintf(w, "URL:        %s\n", e.URL)
			}

			if e.Ext != "" {
				fmt.Fprintf(w, "Extension:  %s\n", e.Ext)
			}

			fmt.Fprintf(w, "Created At: %s\n", e.Created.Format(time.RFC3339))

			return nil
		},
	}
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client()
			if err != nil {
				return err
			}

			if err := c.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])

			return nil
		},
	}
}
