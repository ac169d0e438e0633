package lcabyg

import (
	"errors"
	"fmt"
)

// StatusAuthTokenExpired código HTTP que usa la API cuando el token caducó
const StatusAuthTokenExpired = 440

// ErrPollExhausted el job no terminó dentro de los intentos de la PollPolicy
var ErrPollExhausted = errors.New("el job no terminó a tiempo")

// AuthTokenExpiredError el token de sesión caducó; hay que volver a hacer login
type AuthTokenExpiredError struct {
	Method string
	Path   string
	Body   string
}

func (e *AuthTokenExpiredError) Error() string {
	return fmt.Sprintf("%s %s: token caducado", e.Method, e.Path)
}

// APIError respuesta distinta de 200 de la API
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: error en API de LCAbyg (status %d): %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// JobFailedError el job terminó con estado Failed; ExtraOutput trae el log del error
type JobFailedError struct {
	JobID       string
	ExtraOutput string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s falló: %s", e.JobID, e.ExtraOutput)
}
