package answer

// Stage is a step of answering one question.
type Stage int

const (
	StageIdle Stage = iota
	StageRetrieving
	StageEmpty
	StageRanking
	StageGenerating
	StageSanitizing
	StagePersisting
	StageDone
)

var stageNames = [...]string{
	StageIdle:       "idle",
	StageRetrieving: "retrieving",
	StageEmpty:      "empty",
	StageRanking:    "ranking",
	StageGenerating: "generating",
	StageSanitizing: "sanitizing",
	StagePersisting: "persisting",
	StageDone:       "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}
