package cli

import (
	"fmt"
	"os"

	"github.com/hupe1980/probecarto/blobstore"
	"github.com/hupe1980/probecarto/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <file> <blob>",
		Short: "Copy a local file into the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Put(cmd.Context(), args[1], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "push: %s -> %s (%d bytes)\n", args[0], args[1], len(data))
			return nil
		},
	}
}

func (a *app) pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <blob> <file>",
		Short: "Copy a blob from the store into a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := blobstore.ReadAll(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pull: %s -> %s (%d bytes)\n", args[0], args[1], len(data))
			return nil
		},
	}
}

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List blobs in the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			names, err := a.store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <blob>...",
		Short: "Delete blobs from the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if err := a.store.Delete(cmd.Context(), name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			return nil
		},
	}
}

func (a *app) geometryCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "geometry <out.yaml|out.toml>",
		Short: "Write the selected grid as a geometry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.grid()
			if err != nil {
				return err
			}
			if err := config.SaveGeometry(args[0], name, g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "geometry: wrote %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "probe", "probe name recorded in the file")
	return cmd
}

func (a *app) envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List recognized environment variables and their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.Usage())
			return nil
		},
	}
}
