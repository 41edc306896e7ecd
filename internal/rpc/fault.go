package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/metrics"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// Códigos de fault.
const (
	FaultUnknownMethod = 1
	FaultBadRequest    = 2
	FaultInternal      = 3
)

// Fault es un error de transporte, distinto de un job fallido.
type Fault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("<Fault %d: %s>", f.Code, f.Message)
}

// FaultCode implementa command.Fault.
func (f *Fault) FaultCode() int { return f.Code }

var _ command.Fault = (*Fault)(nil)

type request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// args convierte los params a strings: los strings JSON se desempaquetan,
// números y bools se pasan como su texto. Objetos y arrays no son válidos.
func (r request) args() ([]string, error) {
	out := make([]string, 0, len(r.Params))
	for i, raw := range r.Params {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			return nil, fmt.Errorf("param %d is empty", i)
		}
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
			out = append(out, s)
		case 't', 'f':
			b, err := strconv.ParseBool(string(raw))
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
			out = append(out, strconv.FormatBool(b))
		case 'n':
			out = append(out, "")
		case '{', '[':
			return nil, fmt.Errorf("param %d must be a scalar", i)
		default:
			var n json.Number
			if err := json.Unmarshal(raw, &n); err != nil {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
			out = append(out, n.String())
		}
	}
	return out, nil
}

type response struct {
	Status *command.Status `json:"status,omitempty"`
	Fault  *Fault          `json:"fault,omitempty"`
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFault responde un fault con HTTP 200: el transporte funcionó, la llamada no.
func writeFault(w http.ResponseWriter, r *http.Request, code int, format string, args ...any) {
	f := &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
	metrics.RPCFaults.WithLabelValues(fmt.Sprint(code)).Inc()
	logger.From(r.Context()).Warn("rpc fault", logger.Int("code", code), logger.String("message", f.Message))
	WriteJSON(w, http.StatusOK, response{Fault: f})
}
