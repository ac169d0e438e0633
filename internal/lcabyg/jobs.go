package lcabyg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Estados de un job
const (
	StatusNew     = "New"
	StatusStarted = "Started"
	StatusReady   = "Ready"
	StatusFailed  = "Failed"
)

// NewJob cuerpo de POST /v2/jobs
type NewJob struct {
	Priority        int    `json:"priority"`
	JobTarget       string `json:"job_target"`
	JobTargetMinVer string `json:"job_target_min_ver"`
	JobTargetMaxVer string `json:"job_target_max_ver"`
	JobArguments    string `json:"job_arguments"`
	ExtraInput      string `json:"extra_input"`
	InputBlob       string `json:"input_blob"` // JSON del proyecto en base64
}

// Job estado de un job en el servidor
type Job struct {
	ID              string `json:"id"`
	Priority        int    `json:"priority"`
	JobTarget       string `json:"job_target"`
	JobTargetMinVer string `json:"job_target_min_ver"`
	JobTargetMaxVer string `json:"job_target_max_ver"`
	JobArguments    string `json:"job_arguments"`
	Status          string `json:"status"`
	ExtraOutput     string `json:"extra_output"`
}

// Pending indica si el job sigue en cola o en cálculo
func (j *Job) Pending() bool {
	return j.Status == StatusNew || j.Status == StatusStarted
}

// PackProject crea el cuerpo del job con los registros del proyecto codificados
// en base64
func PackProject(target string, projects []json.RawMessage) (NewJob, error) {
	if projects == nil {
		projects = []json.RawMessage{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return NewJob{}, fmt.Errorf("error serializando proyecto: %w", err)
	}
	return NewJob{
		Priority:  0,
		JobTarget: target,
		InputBlob: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// UnpackBytes decodifica un blob base64 de la API a JSON
func UnpackBytes(blob string) (json.RawMessage, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("blob base64 inválido: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("el blob decodificado no es JSON")
	}
	return json.RawMessage(data), nil
}

// ListJobs ids de todos los jobs de la cuenta
func (c *Client) ListJobs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.authed(ctx, http.MethodGet, "/v2/jobs", nil, &ids); err != nil {
		return nil, fmt.Errorf("listando jobs: %w", err)
	}
	return ids, nil
}

// GetJob estado actual de un job
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.authed(ctx, http.MethodGet, jobPath(jobID, ""), nil, &job); err != nil {
		return nil, fmt.Errorf("consultando job %s: %w", jobID, err)
	}
	return &job, nil
}

// PostJob envía un job. Los errores de validación del proyecto llegan luego en ExtraOutput.
func (c *Client) PostJob(ctx context.Context, job NewJob) (*Job, error) {
	var posted Job
	if err := c.authed(ctx, http.MethodPost, "/v2/jobs", job, &posted); err != nil {
		return nil, fmt.Errorf("enviando job: %w", err)
	}
	return &posted, nil
}

// GetJobInput el modelo de entrada del job, ya decodificado
func (c *Client) GetJobInput(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.getBlob(ctx, jobID, "input")
}

// GetJobOutput resultados y modelo del job, ya decodificados
func (c *Client) GetJobOutput(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.getBlob(ctx, jobID, "output")
}

func (c *Client) getBlob(ctx context.Context, jobID, kind string) (json.RawMessage, error) {
	var blob string
	if err := c.authed(ctx, http.MethodGet, jobPath(jobID, kind), nil, &blob); err != nil {
		return nil, fmt.Errorf("descargando %s del job %s: %w", kind, jobID, err)
	}
	data, err := UnpackBytes(blob)
	if err != nil {
		return nil, fmt.Errorf("%s del job %s: %w", kind, jobID, err)
	}
	return data, nil
}

// MarkJobFinished avisa al servidor que ya no se necesita el job. Solo se puede
// hacer una vez por job; después el servidor lo elimina.
func (c *Client) MarkJobFinished(ctx context.Context, jobID string) error {
	if err := c.authed(ctx, http.MethodDelete, jobPath(jobID, ""), nil, nil); err != nil {
		return fmt.Errorf("marcando job %s como terminado: %w", jobID, err)
	}
	return nil
}

// WaitForJob consulta el estado del job según la PollPolicy hasta que deje de
// estar en New o Started
func (c *Client) WaitForJob(ctx context.Context, job *Job) (*Job, error) {
	for attempt := 0; job.Pending(); attempt++ {
		if attempt >= c.poll.MaxAttempts {
			return job, fmt.Errorf("job %s sigue en %s tras %d consultas: %w",
				job.ID, job.Status, attempt, ErrPollExhausted)
		}

		timer := time.NewTimer(c.poll.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return job, ctx.Err()
		case <-timer.C:
		}

		next, err := c.GetJob(ctx, job.ID)
		if err != nil {
			return job, err
		}
		job = next
	}
	return job, nil
}

// SubmitJob envía el job, espera el resultado, lo descarga y marca el job como
// terminado. Devuelve el estado final y la salida decodificada.
func (c *Client) SubmitJob(ctx context.Context, newJob NewJob) (*Job, json.RawMessage, error) {
	posted, err := c.PostJob(ctx, newJob)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Job %s enviado (estado %s)", posted.ID, posted.Status)

	job, err := c.WaitForJob(ctx, posted)
	if err != nil {
		return job, nil, err
	}

	if job.Status == StatusFailed {
		c.finish(ctx, job.ID)
		return job, nil, &JobFailedError{JobID: job.ID, ExtraOutput: job.ExtraOutput}
	}

	output, err := c.GetJobOutput(ctx, job.ID)
	if err != nil {
		return job, nil, err
	}
	c.finish(ctx, job.ID)

	return job, output, nil
}

// finish marca el job como terminado sin interrumpir al llamador si falla
func (c *Client) finish(ctx context.Context, jobID string) {
	if err := c.MarkJobFinished(ctx, jobID); err != nil {
		log.Printf("Advertencia: %v", err)
	}
}

func jobPath(jobID, suffix string) string {
	p := "/v2/jobs/" + url.PathEscape(jobID)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}
