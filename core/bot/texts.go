package bot

// Reply button labels. Text rules match these exactly.
const (
	btnBalance  = "💰 Balance"
	btnServices = "📦 My Services"
	btnInvite   = "👥 Invite Friends"

	btnShareContact = "📱 Share my phone number"
)

// Inline callback keys.
const (
	cbAdminBroadcast = "admin_broadcast"
	cbAdminCancel    = "admin_cancel"
)

const (
	textWelcome = "Hi! I'm online 🌟"

	textAskContact = "To finish registration, please share your phone number using the button below."

	textRegistered        = "You're all set! Pick an option from the menu."
	textAlreadyRegistered = "Your phone number is already registered."
	textForeignContact    = "Please share your own contact, not someone else's."

	textMenuHint = "Pick an option from the menu."

	textCommitFailed = "Something went wrong while saving. Please try again."

	textNoServices = "You have no active services yet."

	textAdminPanel          = "Admin panel. What would you like to do?"
	textAdminBroadcastArmed = "Send me the message you want to broadcast to every user. Use Cancel to abort."
	textAdminCancelled      = "Cancelled."
)
