package cli

import (
	"fmt"
	"slices"

	"github.com/hupe1980/probecarto/blueprint"
	"github.com/hupe1980/probecarto/cluster"
	"github.com/hupe1980/probecarto/edges"
	"github.com/spf13/cobra"
)

func (a *app) infoCmd() *cobra.Command {
	var raster bool
	cmd := &cobra.Command{
		Use:   "info <blob>",
		Short: "Show grid shape, category counts and group counts of a blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			bp, err := eng.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := eng.Toolkit().Clustering(bp.Categories(), 0)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ns, ny, nx := eng.Grid().Shape()
			fmt.Fprintf(out, "sites:    %d\n", bp.Len())
			fmt.Fprintf(out, "shanks:   %d\nrows:     %d\ncolumns:  %d\n", ns, ny, nx)
			fmt.Fprintf(out, "spacing:  %dx%d\n", eng.Grid().DX(), eng.Grid().DY())

			counts := make(map[int]int)
			for _, v := range bp.Categories() {
				counts[v]++
			}
			cats := make([]int, 0, len(counts))
			for v := range counts {
				cats = append(cats, v)
			}
			slices.Sort(cats)

			fmt.Fprintf(out, "\n%-10s %-8s %s\n", "category", "sites", "groups")
			for _, v := range cats {
				groups := 0
				if v != 0 {
					groups = len(c.GroupsFor(v))
				}
				fmt.Fprintf(out, "%-10d %-8d %d\n", v, counts[v], groups)
			}
			if raster {
				fmt.Fprintf(out, "\n%s\n", blueprint.Format(eng.Grid(), bp.Categories()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raster, "raster", false, "print the category raster")
	return cmd
}

func (a *app) clusterCmd() *cobra.Command {
	var category int
	cmd := &cobra.Command{
		Use:   "cluster <blob>",
		Short: "List the connected groups of a blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			bp, err := eng.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := eng.Toolkit().Clustering(bp.Categories(), category)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s %-9s %-6s %s\n", "group", "category", "shank", "sites")
			for _, id := range c.GroupIDs() {
				fmt.Fprintf(out, "%-6d %-9d %-6d %d\n", id, c.Category(id), c.Shank(id), c.GroupCount(id))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&category, "category", "c", 0, "only group this category (0 groups every nonzero category)")
	return cmd
}

func (a *app) edgesCmd() *cobra.Command {
	var (
		category      int
		width, height int
		cornerX       int
		cornerY       int
	)
	cmd := &cobra.Command{
		Use:   "edges <blob>",
		Short: "Trace the boundary polygons of every group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			bp, err := eng.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err := cluster.Find(eng.Grid(), bp.Categories(), cluster.Only(category, eng.Toolkit().Connectivity()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range edges.Trace(c) {
				if width > 0 || height > 0 {
					e = e.SmallCornerRemoving(width, height)
				}
				if cornerX > 0 || cornerY > 0 {
					if e, err = e.SetCorner(cornerX, cornerY); err != nil {
						return err
					}
				}
				fmt.Fprintln(out, e)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&category, "category", "c", 0, "only trace this category (0 traces every nonzero category)")
	f.IntVar(&width, "min-width", 0, "remove corners of notches narrower than this")
	f.IntVar(&height, "min-height", 0, "remove corners of notches shorter than this")
	f.IntVar(&cornerX, "corner-x", 0, "resolve corner codes to exact points at this x offset")
	f.IntVar(&cornerY, "corner-y", 0, "resolve corner codes to exact points at this y offset")
	return cmd
}
