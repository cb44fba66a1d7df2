package domain

// LabelMutation is a combined label update: every Remove is applied before
// the single Add, in one tracker request.
type LabelMutation struct {
	Remove []Tag `json:"remove"`
	Add    Tag   `json:"add"`
}

// Transition computes the mutation that moves a ticket carrying current
// into target. The removal list is always the whole vocabulary, so the
// result does not depend on what current contains and any stray tags left
// by manual edits are cleared.
func Transition(current []Tag, target TriageState) (LabelMutation, error) {
	tag, err := TagFor(target)
	if err != nil {
		return LabelMutation{}, err
	}
	return LabelMutation{
		Remove: AllTags(),
		Add:    tag,
	}, nil
}
