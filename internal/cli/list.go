package cli

import (
	"github.com/spf13/cobra"

	"github.com/davicafu/lazygrid/internal/grid"
)

func newListCmd(a *app) *cobra.Command {
	var (
		page    int
		size    int
		sortBy  string
		search  string
		filters []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the collection",
		Args:  cobra.NoArgs,
		Example: `  lazygrid list --sort salary,desc --page 2
  lazygrid list --filter lastName=smi --search ana --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := listEvents(page, size, sortBy, search, filters, a.cfg.PageSize)
			if err != nil {
				return err
			}

			s, err := a.mount(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.Apply(events...)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return RenderJSON(a.out, snap)
			}
			RenderTable(a.out, snap)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number (1-based)")
	cmd.Flags().IntVar(&size, "size", 0, "rows per page (default from config)")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort as field[,asc|desc]")
	cmd.Flags().StringVarP(&search, "search", "q", "", "global search term")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "column filter field=value (repeatable)")
	return cmd
}

// listEvents traduce los flags a eventos de la vista. La página va al final
// porque filtrar devuelve a la primera.
func listEvents(page, size int, sortBy, search string, filters []string, defaultSize int) ([]grid.Event, error) {
	if size <= 0 {
		size = defaultSize
	}
	if page <= 0 {
		page = 1
	}

	var events []grid.Event
	if sortBy != "" {
		field, dir, err := ParseSort(sortBy)
		if err != nil {
			return nil, err
		}
		events = append(events, grid.SortChange{Field: field, Direction: grid.ParseSortDirection(dir)})
	}

	if len(filters) > 0 {
		current := grid.Filters{}
		for _, f := range filters {
			field, value, err := ParseFilter(f)
			if err != nil {
				return nil, err
			}
			current = grid.NormalizeFilters(withFilter(current, field, value))
		}
		events = append(events, grid.FilterChange{Filters: current.Raw()})
	}
	if search != "" {
		events = append(events, grid.GlobalFilterChange{Term: search})
	}

	events = append(events, grid.PageChange{Offset: (page - 1) * size, PageSize: size})
	return events, nil
}
