package booking

import "fmt"

// Stage is a position in the booking wizard
type Stage int

const (
	StageIdle Stage = iota
	StageFareSelect
	StagePassengerDetails
	StageExtraServices
	StagePaymentReview
	StageCompleted
	StageAbandoned
)

var stageNames = map[Stage]string{
	StageIdle:             "idle",
	StageFareSelect:       "fare_select",
	StagePassengerDetails: "passenger_details",
	StageExtraServices:    "extra_services",
	StagePaymentReview:    "payment_review",
	StageCompleted:        "completed",
	StageAbandoned:        "abandoned",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStage is the inverse of Stage.String
func ParseStage(name string) (Stage, error) {
	for stage, n := range stageNames {
		if n == name {
			return stage, nil
		}
	}
	return StageIdle, fmt.Errorf("unknown stage %q", name)
}

// active reports whether the wizard still accepts input
func (s Stage) active() bool {
	return s >= StageFareSelect && s <= StagePaymentReview
}

// Step is one entry of the progress stepper
type Step struct {
	Label     string `json:"label"`
	Stage     Stage  `json:"stage"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
	Clickable bool   `json:"clickable"`
}

// Search and flight choice happen before a session exists, so they map to idle.
var stepper = []struct {
	label string
	stage Stage
}{
	{"Search", StageIdle},
	{"Choose flight", StageIdle},
	{"Choose fare", StageFareSelect},
	{"Passenger details", StagePassengerDetails},
	{"Extra Services", StageExtraServices},
	{"Payment", StagePaymentReview},
}

func buildSteps(current Stage, allowJump, submitting bool) []Step {
	steps := make([]Step, 0, len(stepper))
	reached := current >= StageFareSelect && current <= StageCompleted
	for i, entry := range stepper {
		step := Step{Label: entry.label, Stage: entry.stage}
		if entry.stage == StageIdle {
			step.Completed = reached
			step.Active = current == StageIdle && i == 1
		} else {
			step.Active = current == entry.stage
			step.Completed = reached && current > entry.stage
			step.Clickable = allowJump && step.Completed && current.active() && !submitting
		}
		steps = append(steps, step)
	}
	return steps
}
