package bot

import "strings"

// Command names understood by the bot.
const (
	CmdStart        = "start"
	CmdHelp         = "help"
	CmdTip          = "tip"
	CmdConvert      = "convert"
	CmdHistory      = "history"
	CmdClearHistory = "clear_history"
	CmdSetDefault   = "set_default_tip"
)

// parseCommand splits "/name@Bot arg1 arg2" into its name and arguments.
// ok is false for text that is not a command, or a command addressed to a
// different bot.
func parseCommand(text, botName string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}

	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		mention := name[at+1:]
		name = name[:at]
		if botName != "" && !strings.EqualFold(mention, botName) {
			return "", nil, false
		}
	}
	if name == "" {
		return "", nil, false
	}

	return strings.ToLower(name), fields[1:], true
}
