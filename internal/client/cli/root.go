package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) prompt() string {
	if a.engine.Online() {
		return "shoplist (online)> "
	}
	return "shoplist (offline)> "
}

// Root runs the command loop until exit or EOF. Input goes through the
// app's shared reader so interactive prompts do not lose buffered bytes.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Shopping list CLI (type 'help' for commands)")

	for {
		fmt.Print(a.prompt())
		line, readErr := a.reader.ReadString('\n')
		if readErr != nil {
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printHelp()
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "lists":
			err = a.showLists(ctx)
		case "newlist":
			err = a.newList(ctx, args)
		case "dellist":
			err = a.deleteList(ctx, args)
		case "order":
			err = a.reorderCategories(ctx, args)
		case "items":
			err = a.showItems(ctx, args)
		case "add":
			err = a.addItem(ctx, args)
		case "check":
			err = a.checkItem(ctx, args)
		case "delitem":
			err = a.deleteItem(ctx, args)
		case "import":
			err = a.importFile(ctx, args)
		case "sync":
			err = a.forceSync(ctx)
		case "status":
			a.showStatus()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
		if err != nil {
			fmt.Println("Error:", err)
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  register                     create an account
  login / logout               manage the session
  lists                        show your lists
  newlist <name>               create a list
  dellist <list-id>            delete a list and its items
  order <list-id> <a,b,c>      set the category order of a list
  items <list-id>              show the items of a list
  add <list-id> <name>         add an item
  check <item-id>              toggle an item's checked state
  delitem <item-id>            delete an item
  import <file.json>           bulk-import lists from a JSON file
  sync                         force a sync cycle
  status                       show sync status
  exit                         quit`)
}
