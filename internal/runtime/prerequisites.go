package runtime

import (
	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

// CheckPrerequisites returns the prerequisite paths of stage that st does not satisfy,
// in declaration order. Every path is checked; an empty result means entry is allowed.
func CheckPrerequisites(stage *domain.Stage, st *state.Store) []string {
	var failing []string
	for _, path := range stage.Prerequisites {
		if st == nil || !st.Exists(path) {
			failing = append(failing, path)
		}
	}
	return failing
}
