package bot

import (
	"fmt"

	"github.com/mmynk/tipbot/internal/telegram"
)

// BackLabel returns the user to the main menu.
const BackLabel = "⬅️ Back"

func keyboard(rows ...[]string) *telegram.ReplyKeyboardMarkup {
	kb := &telegram.ReplyKeyboardMarkup{ResizeKeyboard: true}
	for _, row := range rows {
		buttons := make([]telegram.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, telegram.KeyboardButton{Text: text})
		}
		kb.Keyboard = append(kb.Keyboard, buttons)
	}
	return kb
}

var (
	mainMenu = keyboard(
		[]string{"/tip", "/convert"},
		[]string{"/history", "/clear_history"},
		[]string{"/set_default_tip", "/help"},
	)

	tipExamplesMenu = keyboard(
		[]string{"/tip 2000 15% 4"},
		[]string{"/tip 1500 10% 2"},
		[]string{"/tip 3000 def 3"},
		[]string{BackLabel},
	)

	convertExamplesMenu = keyboard(
		[]string{"/convert 100 USD"},
		[]string{"/convert 50 EUR"},
		[]string{BackLabel},
	)
)

const (
	textMainMenu = "Main menu:"
	textHint     = "Use the buttons or commands to work with the bot. Send /help for the list of commands."
)

func startText(firstName string, defaultTip int) string {
	if firstName == "" {
		firstName = "there"
	}
	return fmt.Sprintf("Hi, %s! I calculate tips and convert currencies.\n"+
		"Your default tip is %d%%.\n"+
		"Use the buttons below or type a command.", firstName, defaultTip)
}

func helpText(defaultTip int) string {
	return fmt.Sprintf(`📝 Available commands:

/tip <amount> [percent] [people] - calculate a tip
If no percent is given, %[1]d%% is used
Examples:
/tip 2000 15%% 4 - explicit percent
/tip 2000 4     - default percent (%[1]d%%) for 4 people
/tip 2000       - tip only

/convert <amount> <currency> - convert to RUB (USD, EUR)
Example: /convert 100 USD

/history - show recent calculations
/clear_history - delete calculation history
/set_default_tip <percent> - set your default tip percent
/help - show this message`, defaultTip)
}
