package runtime

import (
	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Machine enforces a workflow's transition graph for one session at a time.
type Machine struct {
	wf *domain.Workflow
}

// NewMachine creates a transition machine for wf.
func NewMachine(wf *domain.Workflow) *Machine {
	return &Machine{wf: wf}
}

// Enter moves sess to target.
//
// It fails with UnknownStageError if target is not a stage of the workflow and with
// InvalidTransitionError if the graph has no edge from the current stage. When the
// target's prerequisites do not hold it returns the failing paths and leaves sess
// untouched. On success it updates the current stage and drops any pending request.
func (m *Machine) Enter(sess *domain.Session, target string) ([]string, error) {
	stage, ok := m.wf.Stage(target)
	if !ok {
		return nil, &domain.UnknownStageError{Workflow: m.wf.Name, Stage: target}
	}
	if !m.wf.CanTransition(sess.CurrentStage, target) {
		return nil, &domain.InvalidTransitionError{
			Workflow: m.wf.Name,
			From:     sess.CurrentStage,
			To:       target,
		}
	}
	if failing := CheckPrerequisites(stage, sess.State); len(failing) > 0 {
		return failing, nil
	}

	sess.CurrentStage = target
	sess.Pending = nil
	return nil, nil
}

// Current returns the stage the session is in.
func (m *Machine) Current(sess *domain.Session) (*domain.Stage, error) {
	stage, ok := m.wf.Stage(sess.CurrentStage)
	if !ok {
		// Only reachable with a session persisted against a different definition.
		return nil, &domain.UnknownStageError{Workflow: m.wf.Name, Stage: sess.CurrentStage}
	}
	return stage, nil
}

// Resolve finds task in the session's current stage.
// A task that exists only in other stages fails with TaskNotAvailableError,
// one that exists nowhere with UnknownTaskError.
func (m *Machine) Resolve(sess *domain.Session, task string) (*domain.Stage, *domain.Task, error) {
	stage, err := m.Current(sess)
	if err != nil {
		return nil, nil, err
	}
	if t, ok := stage.Task(task); ok {
		return stage, t, nil
	}
	if _, _, ok := m.wf.FindTask(task); ok {
		return nil, nil, &domain.TaskNotAvailableError{
			Task:      task,
			Stage:     stage.Name,
			Available: stage.TaskNames(),
		}
	}
	return nil, nil, &domain.UnknownTaskError{Workflow: m.wf.Name, Task: task}
}
