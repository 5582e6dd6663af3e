package patient

// Outcome is the binary diabetes label.
type Outcome int

const (
	NotAtRisk Outcome = 0
	AtRisk    Outcome = 1
)

// AtRisk reports whether the outcome is the positive class.
func (o Outcome) AtRisk() bool {
	return o != NotAtRisk
}

// Message is the user-facing sentence for the outcome.
func (o Outcome) Message() string {
	if o.AtRisk() {
		return "You are at risk of diabetes"
	}
	return "You are not at risk of diabetes"
}

// Class is the alert style used when rendering the outcome.
func (o Outcome) Class() string {
	if o.AtRisk() {
		return "danger"
	}
	return "success"
}

func (o Outcome) String() string {
	if o.AtRisk() {
		return "1"
	}
	return "0"
}
