package bot

import (
	"github.com/teamfinder/mlbb-finder/internal/platform/i18n/catalog"
	"github.com/teamfinder/mlbb-finder/internal/services/finder/reply"
)

func startMenu(p catalog.Printer) *reply.Menu {
	return reply.Grid(2, p.Text("button.start"), p.Text("button.about"))
}

func fillProfileMenu(p catalog.Printer) *reply.Menu {
	return reply.Grid(1, p.Text("button.fill_profile"))
}

func mainMenu(p catalog.Printer) *reply.Menu {
	return reply.Grid(2,
		p.Text("button.quick_search"), p.Text("button.teammate_search"),
		p.Text("button.my_profile"), p.Text("button.liked_me"),
	)
}

func myProfileMenu(p catalog.Printer) *reply.Menu {
	return reply.Grid(2, p.Text("button.edit_profile"), p.Text("button.delete_profile")).
		WithRow(p.Text("button.to_menu"))
}

func confirmDeleteMenu(p catalog.Printer) *reply.Menu {
	return reply.Grid(2, p.Text("button.confirm_delete"), p.Text("button.cancel_delete"))
}
