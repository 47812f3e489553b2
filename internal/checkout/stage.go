package checkout

type Stage string

const (
	StageOrdering Stage = "ordering"
	StagePayment  Stage = "payment"
	StageSuccess  Stage = "success"
	StageSettings Stage = "settings"
)

// success is left only through Reset (logout), never by a transition.
var validNext = map[Stage]map[Stage]bool{
	StageOrdering: {StagePayment: true, StageSettings: true},
	StagePayment:  {StageOrdering: true, StageSuccess: true},
	StageSettings: {StageOrdering: true},
	StageSuccess:  {},
}

func CanTransition(from, to Stage) bool {
	return validNext[from][to]
}
