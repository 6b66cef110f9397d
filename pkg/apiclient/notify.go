package apiclient

// Notifier is the capability handle for user-facing notifications. Adapters
// around a concrete toast/alert library satisfy it; technical detail never
// flows through here, only display text.
type Notifier interface {
	Error(message string)
	Warn(message string)
}

// Indicator is the capability handle for the global busy indicator.
type Indicator interface {
	Show()
	Hide()
}

type nopNotifier struct{}

func (nopNotifier) Error(string) {}
func (nopNotifier) Warn(string)  {}

type nopIndicator struct{}

func (nopIndicator) Show() {}
func (nopIndicator) Hide() {}
