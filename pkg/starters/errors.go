package starters

import (
	"strconv"

	"github.com/cuemby/stowsched/pkg/schederr"
)

// errUnknownCouple is the Precondition a ResourceReporter returns
// when the scheduler asks it to report resources for a couple that
// has since vanished from the snapshot between candidate construction
// and admission.
func errUnknownCouple(coupleID string) error {
	return &schederr.Precondition{Entity: "couple " + coupleID, Reason: "not present in current snapshot"}
}

func errUnknownGroup(groupID int) error {
	return &schederr.Precondition{Entity: "group " + strconv.Itoa(groupID), Reason: "not present in current snapshot"}
}
