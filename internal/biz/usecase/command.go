package usecase

import "sort"

// CommandSpec describes a bot command
type CommandSpec struct {
	Name        string
	AdminOnly   bool
	Usage       string
	Description string
}

// Commands is the closed set of recognised commands
var Commands = map[string]CommandSpec{
	"start":       {Name: "start", Usage: "/start", Description: "Introduce the bot"},
	"stats":       {Name: "stats", Usage: "/stats", Description: "Show your activity"},
	"help":        {Name: "help", AdminOnly: true, Usage: "/help", Description: "List admin commands"},
	"topusers":    {Name: "topusers", AdminOnly: true, Usage: "/topusers", Description: "Leaderboard image of the most active members"},
	"filter":      {Name: "filter", AdminOnly: true, Usage: "/filter add|remove|list [word]", Description: "Manage banned words"},
	"unfilter":    {Name: "unfilter", AdminOnly: true, Usage: "/unfilter <word>", Description: "Remove a banned word"},
	"listfilters": {Name: "listfilters", AdminOnly: true, Usage: "/listfilters", Description: "List banned words"},
	"ban":         {Name: "ban", AdminOnly: true, Usage: "/ban @username (or reply)", Description: "Ban a member"},
	"unban":       {Name: "unban", AdminOnly: true, Usage: "/unban @username (or reply)", Description: "Lift a ban"},
	"purge":       {Name: "purge", AdminOnly: true, Usage: "/purge @username (or reply)", Description: "Forget a member's activity record"},
	"settings":    {Name: "settings", AdminOnly: true, Usage: "/settings", Description: "Toggle group features"},
}

// SortedCommands returns the command specs ordered by name
func SortedCommands() []CommandSpec {
	specs := make([]CommandSpec, 0, len(Commands))
	for _, c := range Commands {
		specs = append(specs, c)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
