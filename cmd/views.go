package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/preset"
)

var (
	vsFilters filterFlags
	vsDesc    string
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved filter views",
}

var viewsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the given filter flags as a named view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := vsFilters.state(cmd)
		if err != nil {
			return err
		}
		p := preset.FromState(args[0], vsDesc, st)
		if err := preset.NewStore(cfg.ViewsDir).Save(p); err != nil {
			return err
		}
		term.Successf("saved view %q", p.Name)
		return nil
	},
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := preset.NewStore(cfg.ViewsDir).List()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("(no views)")
			return nil
		}
		rows := make([][]string, 0, len(all))
		for _, p := range all {
			filters := strconv.Itoa(len(describeState(p.State())))
			rows = append(rows, []string{p.Name, p.Description, filters, p.UpdatedAt.Format("2006-01-02 15:04")})
		}
		term.Table([]string{"Name", "Description", "Filters", "Updated"}, rows)
		return nil
	},
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := preset.NewStore(cfg.ViewsDir).Delete(args[0]); err != nil {
			return err
		}
		term.Successf("deleted view %q", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.AddCommand(viewsSaveCmd)
	viewsCmd.AddCommand(viewsListCmd)
	viewsCmd.AddCommand(viewsDeleteCmd)
	addFilterFlags(viewsSaveCmd, &vsFilters)
	viewsSaveCmd.Flags().StringVar(&vsDesc, "desc", "", "view description")
}
