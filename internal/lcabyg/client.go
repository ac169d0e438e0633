// Package lcabyg es un cliente de la API web v2 de LCAbyg: login, ping,
// envío de jobs, consulta de estado y descarga de resultados.
package lcabyg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PhelGc/lcabyg-sensitivity/internal/config"
)

// Client cliente de la API de LCAbyg. No es seguro para uso concurrente.
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	target     string
	poll       PollPolicy
	token      string
	httpClient *http.Client
}

// PollPolicy cada cuánto y cuántas veces consultar el estado de un job
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// NewClient crea un nuevo cliente de LCAbyg
func NewClient(cfg config.LCAbygConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	poll := PollPolicy{Interval: cfg.Poll.Interval, MaxAttempts: cfg.Poll.MaxAttempts}
	if poll.Interval <= 0 {
		poll.Interval = time.Second
	}
	if poll.MaxAttempts <= 0 {
		poll.MaxAttempts = 600
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.ServerURL, "/"),
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		target:     cfg.Target,
		poll:       poll,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Target motor de cálculo configurado para los jobs
func (c *Client) Target() string {
	return c.target
}

// Login obtiene un token de sesión con usuario y API key. El API key no es el token.
func (c *Client) Login(ctx context.Context) (string, error) {
	var token string
	err := c.do(ctx, http.MethodPost, "/v2/login", nil, &token, func(req *http.Request) {
		req.SetBasicAuth(c.username, c.apiKey)
	})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if _, err := uuid.Parse(token); err != nil {
		return "", fmt.Errorf("login: token inválido %q: %w", token, err)
	}
	c.token = token
	return token, nil
}

// Ping verifica la conexión sin login. Responde "pong".
func (c *Client) Ping(ctx context.Context) (string, error) {
	var res string
	if err := c.do(ctx, http.MethodGet, "/v2/ping", nil, &res, nil); err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	return res, nil
}

// PingSecure verifica la conexión con login. Responde "pong_secure".
func (c *Client) PingSecure(ctx context.Context) (string, error) {
	var res string
	if err := c.authed(ctx, http.MethodGet, "/v2/ping_secure", nil, &res); err != nil {
		return "", fmt.Errorf("ping_secure: %w", err)
	}
	return res, nil
}

// authed hace la llamada con el token, haciendo login primero si aún no hay uno
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	if c.token == "" {
		if _, err := c.Login(ctx); err != nil {
			return err
		}
	}
	return c.do(ctx, method, path, body, out, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	})
}

// do envía la petición y decodifica la respuesta JSON en out
func (c *Client) do(ctx context.Context, method, path string, body, out any, prepare func(*http.Request)) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error serializando petición: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creando request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prepare != nil {
		prepare(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error haciendo request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error leyendo response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case StatusAuthTokenExpired:
		return &AuthTokenExpiredError{Method: method, Path: path, Body: string(respBody)}
	default:
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parseando response de %s: %w", path, err)
	}
	return nil
}
