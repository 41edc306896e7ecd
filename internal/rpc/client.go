package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// DefaultTimeout es el timeout del cliente cuando no se configura otro.
const DefaultTimeout = 60 * time.Second

// Client llama comandos remotos de un servidor fabric.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ command.Caller = (*Client)(nil)

// NewClient crea un cliente para addr ("host:port" o URL base).
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		endpoint: base + "/rpc",
		http:     &http.Client{Timeout: timeout},
	}
}

// callRequest es el lado cliente de request: siempre manda strings.
type callRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

// Call ejecuta group.command en el servidor. Un método inexistente o un request
// inválido vuelve como *Fault.
func (c *Client) Call(ctx context.Context, group, cmd string, args []string) (*command.Status, error) {
	if args == nil {
		args = []string{}
	}
	method := command.Method(group, cmd)
	body, err := json.Marshal(callRequest{Method: method, Params: args})
	if err != nil {
		return nil, fmt.Errorf("rpc: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rpc: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rpc: call %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("rpc: decode %s: %w", method, err)
	}
	if out.Fault != nil {
		logger.From(ctx).Debug("rpc fault", logger.Method(method), logger.Int("code", out.Fault.Code))
		return nil, out.Fault
	}
	if out.Status == nil {
		return nil, fmt.Errorf("rpc: call %s: empty response", method)
	}
	return out.Status, nil
}
