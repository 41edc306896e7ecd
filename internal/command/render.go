package command

import (
	"encoding/json"
	"fmt"
)

// Render arma la salida de un comando despachado: "Command :\n{ return = X\n}".
func Render(payload any) string {
	return "Command :\n{ return = " + formatPayload(payload) + "\n}"
}

func formatPayload(v any) string {
	switch p := v.(type) {
	case nil:
		return "None"
	case string:
		return p
	case fmt.Stringer:
		return p.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
