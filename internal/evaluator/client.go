// Package evaluator recalcula el impacto de un modelo enviándolo como job a la
// API de LCAbyg junto con el resto de los archivos del proyecto.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PhelGc/lcabyg-sensitivity/internal/lcabyg"
	"github.com/PhelGc/lcabyg-sensitivity/internal/results"
)

// Submitter la parte del cliente de LCAbyg que usa el evaluador
type Submitter interface {
	Target() string
	SubmitJob(ctx context.Context, job lcabyg.NewJob) (*lcabyg.Job, json.RawMessage, error)
}

// Client evalúa modelos contra la API de LCAbyg
type Client struct {
	api     Submitter
	project *Project
}

// NewClient crea un evaluador. project son los registros fijos (edificio,
// proyecto, productos) que acompañan al modelo en cada job.
func NewClient(api Submitter, project *Project) *Client {
	if project == nil {
		project = &Project{}
	}
	return &Client{api: api, project: project}
}

// Evaluate envía el modelo serializado y devuelve el resultado decodificado.
// Los errores del servicio se devuelven sin reinterpretar.
func (c *Client) Evaluate(ctx context.Context, serializedModel []byte) (*results.ImpactResult, error) {
	var modelRecords []json.RawMessage
	if err := json.Unmarshal(serializedModel, &modelRecords); err != nil {
		return nil, fmt.Errorf("el modelo debe ser una lista JSON: %w", err)
	}

	records := make([]json.RawMessage, 0, len(c.project.Records)+len(modelRecords))
	records = append(records, c.project.Records...)
	records = append(records, modelRecords...)

	job, err := lcabyg.PackProject(c.api.Target(), records)
	if err != nil {
		return nil, err
	}

	_, output, err := c.api.SubmitJob(ctx, job)
	if err != nil {
		return nil, err
	}

	result, err := results.Decode(output)
	if err != nil {
		return nil, fmt.Errorf("salida del job: %w", err)
	}
	return result, nil
}
