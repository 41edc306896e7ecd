package command

import (
	"github.com/dropDatabas3/fabric/internal/executor"
)

// JobStatus es la vista de un job en la respuesta de un comando remoto.
type JobStatus struct {
	JobID       string `json:"job_id"`
	Action      string `json:"action"`
	Success     bool   `json:"success"`
	State       string `json:"state"`
	Description string `json:"description"`
	Error       string `json:"error,omitempty"`
}

// Status es la respuesta de un comando remoto: la cadena de jobs y el resultado del último.
type Status struct {
	Chain  []JobStatus `json:"chain"`
	Return any         `json:"return"`
}

// StatusFromCompletion convierte el resultado del executor.
func StatusFromCompletion(c executor.Completion) *Status {
	st := &Status{Chain: make([]JobStatus, 0, len(c.Jobs)), Return: c.Result}
	for _, j := range c.Jobs {
		st.Chain = append(st.Chain, JobStatus{
			JobID:       j.ID.String(),
			Action:      j.Action,
			Success:     j.Succeeded(),
			State:       j.State.String(),
			Description: j.Description,
			Error:       j.Error,
		})
	}
	return st
}

// Succeeded reporta si todos los jobs de la cadena terminaron bien. Una cadena vacía
// (fault de transporte) no es exitosa.
func (s *Status) Succeeded() bool {
	if s == nil || len(s.Chain) == 0 {
		return false
	}
	for _, j := range s.Chain {
		if !j.Success {
			return false
		}
	}
	return true
}

// Last retorna el último job de la cadena.
func (s *Status) Last() (JobStatus, bool) {
	if s == nil || len(s.Chain) == 0 {
		return JobStatus{}, false
	}
	return s.Chain[len(s.Chain)-1], true
}
