package navigation

// User-facing messages for the click-time navigation flow. All output to the
// user goes through the Prompter so surfaces can restyle or localize it.
const (
	msgInvalidCommand  = "That linked-card action could not be understood."
	msgLinkedCardGone  = "The linked card no longer exists. Remove the link when editing the note."
	msgLoadFailed      = "The linked card could not be loaded. Please try again."
	msgPreviewFailed   = "The card preview could not be opened."
	msgSelectManually  = "The preview opened, but the card could not be selected automatically. Please select it manually."
	msgRequeueCanceled = "Left the card's schedule unchanged."
	msgSwitchFailed    = "Could not switch to the linked card. Its schedule may have been partially changed."

	promptUnsuspend = "The linked card is suspended. Unsuspend it and review it now?"
	promptUnbury    = "The linked card is buried. Unbury it and review it now?"
	promptRequeue   = "The linked card is not in today's queue. Review it now?"
)
