package cli

import (
	"fmt"
	"math"

	"github.com/hupe1980/probecarto"
	"github.com/hupe1980/probecarto/toolkit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// areaFlags are shared by fill, extend and reduce.
type areaFlags struct {
	category int
	min, max int
	value    int
	rows     int
	step     toolkit.AreaChange
}

func (f *areaFlags) register(fs *pflag.FlagSet, directional bool) {
	fs.IntVarP(&f.category, "category", "c", 0, "category to edit (0 edits every nonzero category)")
	fs.IntVar(&f.min, "min", 0, "smallest group size edited")
	fs.IntVar(&f.max, "max", 0, "largest group size edited (0 is unbounded)")
	if !directional {
		return
	}
	fs.IntVar(&f.value, "value", 0, "value written into affected sites")
	fs.IntVar(&f.rows, "rows", 0, "steps up and down; shorthand for --up N --down N")
	fs.IntVar(&f.step.Up, "up", 0, "steps toward higher rows")
	fs.IntVar(&f.step.Down, "down", 0, "steps toward lower rows")
	fs.IntVar(&f.step.Left, "left", 0, "steps toward lower columns")
	fs.IntVar(&f.step.Right, "right", 0, "steps toward higher columns")
}

func (f *areaFlags) threshold() toolkit.AreaThreshold {
	upper := f.max
	if upper <= 0 {
		upper = math.MaxInt
	}
	return toolkit.Threshold(f.min, upper)
}

func (f *areaFlags) change() toolkit.AreaChange {
	step := f.step
	if f.rows > 0 {
		step.Up = max(step.Up, f.rows)
		step.Down = max(step.Down, f.rows)
	}
	return step
}

func (f *areaFlags) editOptions(cmd *cobra.Command) []toolkit.EditOption {
	if cmd.Flags().Changed("value") {
		return []toolkit.EditOption{toolkit.WithValue(f.value)}
	}
	return nil
}

// editFile loads in, applies fn through Engine.Edit and saves to out.
func (a *app) editFile(cmd *cobra.Command, op, in, out string, fn func(t *toolkit.Toolkit, values []int) ([]int, error)) error {
	eng, err := a.engine()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	bp, err := eng.Load(ctx, in)
	if err != nil {
		return err
	}
	before := bp.Snapshot()
	if err := eng.Edit(ctx, op, bp, fn); err != nil {
		return err
	}
	if err := eng.Save(ctx, out, bp); err != nil {
		return err
	}

	changed := 0
	for i, v := range bp.Categories() {
		if before[i] != v {
			changed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sites changed, wrote %s\n", op, changed, out)
	return nil
}

func (a *app) fillCmd() *cobra.Command {
	var f areaFlags
	cmd := &cobra.Command{
		Use:   "fill <in> <out>",
		Short: "Close single-row gaps next to fully populated rows of each group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editFile(cmd, "fill", args[0], args[1], func(t *toolkit.Toolkit, values []int) ([]int, error) {
				return t.Fill(values, toolkit.FillOptions{Category: f.category, Threshold: f.threshold()})
			})
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func (a *app) extendCmd() *cobra.Command {
	var f areaFlags
	cmd := &cobra.Command{
		Use:   "extend <in> <out>",
		Short: "Grow groups into background sites",
		Long: `Grow every qualifying group by the given steps. Background sites
covered by moving a group through the box [-left, right] x [-down, up]
receive the group's category, or --value.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := f.editOptions(cmd)
			return a.editFile(cmd, "extend", args[0], args[1], func(t *toolkit.Toolkit, values []int) ([]int, error) {
				return t.Extend(values, f.category, f.change(), f.threshold(), opts...)
			})
		},
	}
	f.register(cmd.Flags(), true)
	return cmd
}

func (a *app) reduceCmd() *cobra.Command {
	var (
		f      areaFlags
		groups bool
	)
	cmd := &cobra.Command{
		Use:   "reduce <in> <out>",
		Short: "Shrink groups, or remove whole groups with --groups",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := f.editOptions(cmd)
			return a.editFile(cmd, "reduce", args[0], args[1], func(t *toolkit.Toolkit, values []int) ([]int, error) {
				if groups {
					return t.ReduceGroups(values, f.category, f.threshold(), opts...)
				}
				return t.Reduce(values, f.category, f.change(), f.threshold(), opts...)
			})
		},
	}
	f.register(cmd.Flags(), true)
	cmd.Flags().BoolVar(&groups, "groups", false, "remove every qualifying group entirely")
	return cmd
}

func (a *app) moveCmd() *cobra.Command {
	var (
		m        toolkit.Movement
		category int
	)
	cmd := &cobra.Command{
		Use:   "move <in> <out>",
		Short: "Shift a blueprint, or one category of it, within each shank",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editFile(cmd, "move", args[0], args[1], func(t *toolkit.Toolkit, values []int) ([]int, error) {
				if cmd.Flags().Changed("category") {
					return t.MoveCategory(values, m, category)
				}
				return t.Move(values, m)
			})
		},
	}
	cmd.Flags().IntVar(&m.X, "x", 0, "columns to move")
	cmd.Flags().IntVar(&m.Y, "y", 0, "rows to move")
	cmd.Flags().IntVarP(&category, "category", "c", 0, "move only this category")
	return cmd
}

func (a *app) interpolateCmd() *cobra.Command {
	var (
		kx, ky int
		method string
	)
	cmd := &cobra.Command{
		Use:   "interpolate <in> <out.npy>",
		Short: "Fill NaN sites of a per-site data array from their neighborhood",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if probecarto.FormatOf(args[1]) != probecarto.FormatNPY {
				return fmt.Errorf("interpolate writes .npy, got %q", args[1])
			}
			m, err := toolkit.ParseMethod(method)
			if err != nil {
				return err
			}
			if ky == 0 {
				ky = kx
			}
			eng, err := a.engine()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			values, err := eng.LoadData(ctx, args[0])
			if err != nil {
				return err
			}
			filled, err := eng.Toolkit().InterpolateNaNKernel(values, kx, ky, m)
			if err != nil {
				return err
			}
			if err := eng.SaveData(ctx, args[1], filled); err != nil {
				return err
			}

			remaining := 0
			for _, v := range filled {
				if math.IsNaN(v) {
					remaining++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "interpolate: %d NaN sites left, wrote %s\n", remaining, args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&kx, "kernel", 3, "kernel width in columns (odd)")
	cmd.Flags().IntVar(&ky, "kernel-y", 0, "kernel height in rows (odd, defaults to --kernel)")
	cmd.Flags().StringVarP(&method, "method", "m", "mean", "zero, mean, median, min or max")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-encode a blueprint; formats follow the .npy, .csv and .tsv extensions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			bp, err := eng.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := eng.Save(cmd.Context(), args[1], bp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "convert: %s -> %s (%s)\n", args[0], args[1], probecarto.FormatOf(args[1]))
			return nil
		},
	}
}
