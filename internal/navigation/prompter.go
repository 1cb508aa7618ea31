package navigation

//go:generate mockgen -source=prompter.go -destination=../mocks/navigation/mock_prompter.go -package=mock_navigation

// Prompter is the user-consent and notification surface of the controller.
type Prompter interface {
	// Confirm asks a yes/no question and returns the user's answer.
	Confirm(prompt string) (bool, error)
	// Info shows a one-way notification.
	Info(message string)
}
