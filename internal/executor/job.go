package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State es el estado de vida de un job. Sólo avanza: ENQUEUED → RUNNING → COMPLETE.
type State int

const (
	Enqueued State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Enqueued:
		return "ENQUEUED"
	case Running:
		return "RUNNING"
	case Complete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome es el resultado de un job. Se fija al pasar a COMPLETE.
type Outcome int

const (
	Pending Outcome = iota
	Success
	Fail
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "PENDING"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Action es una unidad de trabajo con nombre. Fn corre en un worker con el Persister
// del worker disponible en el contexto (persistence.From).
type Action struct {
	Name string
	Fn   func(ctx context.Context) (any, error)
	// Transactional envuelve Fn entre BEGIN y COMMIT (ROLLBACK si falla).
	Transactional bool
}

// Job es la ejecución de una Action dentro de un Procedure. Sólo lo muta el worker
// que lo ejecuta; hacia afuera se expone como JobRecord.
type Job struct {
	id       uuid.UUID
	action   Action
	state    State
	outcome  Outcome
	result   any
	err      error
	started  time.Time
	finished time.Time
}

func newJob(a Action) *Job {
	return &Job{id: uuid.New(), action: a, state: Enqueued}
}

// Description es el texto estándar de un job, independiente del resultado.
func Description(action string) string {
	return "Executed action (" + action + ")."
}

func (j *Job) start() {
	j.state = Running
	j.started = time.Now()
}

func (j *Job) complete(result any, err error) {
	j.state = Complete
	j.finished = time.Now()
	if err != nil {
		j.outcome = Fail
		j.err = err
		return
	}
	j.outcome = Success
	j.result = result
}

// Record toma una foto inmutable del job.
func (j *Job) Record() JobRecord {
	r := JobRecord{
		ID:          j.id,
		Action:      j.action.Name,
		State:       j.state,
		Outcome:     j.outcome,
		Description: Description(j.action.Name),
		Result:      j.result,
	}
	if j.err != nil {
		r.Error = j.err.Error()
	}
	if !j.finished.IsZero() {
		r.Duration = j.finished.Sub(j.started)
	}
	return r
}

// JobRecord es la vista inmutable de un job terminado (o en curso).
type JobRecord struct {
	ID          uuid.UUID
	Action      string
	State       State
	Outcome     Outcome
	Description string
	Result      any
	Error       string
	Duration    time.Duration
}

// Succeeded reporta si el job terminó con éxito.
func (r JobRecord) Succeeded() bool { return r.State == Complete && r.Outcome == Success }
