package autorotate

// Stage is a step of the normalization of one image.
type Stage int

const (
	Decoded Stage = iota
	Validated
	Transformed
	Rewritten
	Reassembled
)

var stageNames = [...]string{"decoded", "validated", "transformed", "rewritten", "reassembled"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}
