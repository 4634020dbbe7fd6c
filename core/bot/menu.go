package bot

import "github.com/mehradnfi/shadwbot/core/dispatch"

// contactKeyboard prompts the unregistered user for their phone number.
func contactKeyboard() *dispatch.Keyboard {
	return &dispatch.Keyboard{
		RequestContact: true,
		ContactLabel:   btnShareContact,
	}
}

// mainKeyboard is the registered user's menu. The admin sees one extra row.
func mainKeyboard(isAdmin bool) *dispatch.Keyboard {
	rows := [][]string{
		{btnBalance, btnServices},
		{btnInvite},
	}
	if isAdmin {
		rows = append(rows, []string{"/admin"})
	}
	return &dispatch.Keyboard{Buttons: rows}
}

// adminKeyboard offers the admin panel actions inline.
func adminKeyboard() *dispatch.Keyboard {
	return &dispatch.Keyboard{
		Inline: [][]dispatch.InlineButton{
			{{Text: "📣 Broadcast", Key: cbAdminBroadcast}},
			{{Text: "❌ Cancel", Key: cbAdminCancel}},
		},
	}
}
