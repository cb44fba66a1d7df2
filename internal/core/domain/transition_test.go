package domain_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apply plays m against labels the way the tracker does: removals first,
// then the add, keeping other labels in order.
func apply(m domain.LabelMutation, labels []string) []string {
	removed := make(map[string]bool, len(m.Remove))
	for _, t := range m.Remove {
		removed[string(t)] = true
	}

	out := make([]string, 0, len(labels)+1)
	for _, l := range labels {
		if !removed[l] {
			out = append(out, l)
		}
	}
	for _, l := range out {
		if l == string(m.Add) {
			return out
		}
	}
	return append(out, string(m.Add))
}

func triageTags(labels []string) []domain.Tag {
	var tags []domain.Tag
	for _, l := range labels {
		if domain.IsTriageTag(domain.Tag(l)) {
			tags = append(tags, domain.Tag(l))
		}
	}
	return tags
}

func TestTransition(t *testing.T) {
	targets := []domain.TriageState{
		domain.StatePending,
		domain.StateCompleted,
		domain.StateNeedMoreInfo,
		domain.StateRejected,
		domain.StateNotApplicable,
	}
	starts := [][]string{
		nil,
		{"RCCL_TRIAGE_PENDING"},
		{"RCCL_TRIAGE_PENDING", "RCCL_TRIAGE_REJECTED", "customer"},
		{"RCCL_TRIAGE_NRI", "RCCL_TRIAGE_COMPLETED", "RCCL_TRIAGE_NEED_MORE_INFO"},
	}

	for _, target := range targets {
		for _, start := range starts {
			m, err := domain.Transition(triageTags(start), target)
			require.NoError(t, err)

			after := apply(m, start)
			tags := triageTags(after)
			want, _ := domain.TagFor(target)
			assert.Equal(t, []domain.Tag{want}, tags, "start=%v target=%s", start, target)
			assert.Equal(t, target, domain.StateFor(after))
		}
	}
}

func TestTransition_SweepsWholeVocabulary(t *testing.T) {
	m, err := domain.Transition([]domain.Tag{domain.TagPending}, domain.StateRejected)
	require.NoError(t, err)

	want := domain.LabelMutation{
		Remove: []domain.Tag{
			domain.TagPending,
			domain.TagCompleted,
			domain.TagNeedMoreInfo,
			domain.TagRejected,
			domain.TagNotApplicable,
		},
		Add: domain.TagRejected,
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("mutation mismatch (-want +got):\n%s", diff)
	}
}

func TestTransition_Idempotent(t *testing.T) {
	start := []string{"RCCL_TRIAGE_COMPLETED", "perf"}

	first, err := domain.Transition(triageTags(start), domain.StateNeedMoreInfo)
	require.NoError(t, err)
	once := apply(first, start)

	second, err := domain.Transition(triageTags(once), domain.StateNeedMoreInfo)
	require.NoError(t, err)
	twice := apply(second, once)

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"perf", "RCCL_TRIAGE_NEED_MORE_INFO"}, twice)
}

func TestTransition_InvalidTarget(t *testing.T) {
	for _, target := range []domain.TriageState{domain.StateUnknown, "", "escalated"} {
		m, err := domain.Transition(nil, target)
		assert.ErrorIs(t, err, domain.ErrInvalidTargetState)
		assert.Empty(t, m.Remove)
		assert.Empty(t, m.Add)
	}
}
