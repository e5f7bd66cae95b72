package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"shoplist/internal/client/models"
	"shoplist/internal/common"
)

func (a *App) showLists(ctx context.Context) error {
	lists, err := a.lists.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		fmt.Println("No lists yet. Create one with 'newlist <name>'.")
		return nil
	}
	for _, l := range lists {
		marker := ""
		if l.Archived {
			marker = " [archived]"
		}
		fmt.Printf("%s  %s%s\n", l.ID, l.Name, marker)
	}
	return nil
}

func (a *App) newList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: newlist <name>")
	}
	l, err := a.lists.Create(ctx, models.List{Name: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	fmt.Printf("Created list %s (%s)\n", l.Name, l.ID)
	return nil
}

func (a *App) deleteList(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: dellist <list-id>")
	}
	if err := a.lists.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func (a *App) reorderCategories(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: order <list-id> <category,category,...>")
	}
	order := strings.Split(args[1], ",")
	if _, err := a.lists.UpdateCategoryOrder(ctx, args[0], order); err != nil {
		return err
	}
	fmt.Println("Category order updated.")
	return nil
}

func (a *App) showItems(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: items <list-id>")
	}
	items, err := a.items.GetByList(ctx, args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("List is empty.")
		return nil
	}
	for _, i := range items {
		mark := " "
		if i.Checked {
			mark = "x"
		}
		fmt.Printf("[%s] %s  %s (%g %s, %s)\n", mark, i.ID, i.Name, i.Amount, i.Unit, i.Category)
	}
	return nil
}

func (a *App) addItem(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: add <list-id> <name>")
	}
	i, err := a.items.Create(ctx, models.Item{ListID: args[0], Name: strings.Join(args[1:], " ")})
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%s)\n", i.Name, i.ID)
	return nil
}

func (a *App) checkItem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: check <item-id>")
	}
	i, err := a.items.ToggleChecked(ctx, args[0])
	if err != nil {
		return err
	}
	state := "unchecked"
	if i.Checked {
		state = "checked"
	}
	fmt.Printf("%s is now %s\n", i.Name, state)
	return nil
}

func (a *App) deleteItem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delitem <item-id>")
	}
	if err := a.items.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func (a *App) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: import <file.json>")
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	res, err := a.importer.Import(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d lists with %d items; syncing in the background.\n", res.Lists, res.Items)
	return nil
}

func (a *App) forceSync(ctx context.Context) error {
	res, err := a.engine.Sync(ctx)
	if errors.Is(err, common.ErrSyncInProgress) {
		fmt.Println("Sync already in progress.")
		return nil
	}
	if errors.Is(err, common.ErrNotLoggedIn) {
		fmt.Println("Log in first.")
		return nil
	}
	if res != nil {
		fmt.Printf("Synced %d, failed %d, conflicts %d\n", res.Synced, res.Failed, res.Conflicted)
		for _, msg := range res.Errors {
			fmt.Println("  -", msg)
		}
	}
	return err
}

func (a *App) showStatus() {
	st := a.engine.Status()
	mode := "offline"
	if st.Online {
		mode = "online"
	}
	fmt.Printf("Mode: %s\n", mode)
	if st.LastSync.IsZero() {
		fmt.Println("Last sync: never")
	} else {
		fmt.Println("Last sync:", st.LastSync.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("Pending changes:", st.PendingChanges)
	fmt.Println("Syncing:", st.Syncing)
	for _, msg := range st.Errors {
		fmt.Println("  -", msg)
	}
}
