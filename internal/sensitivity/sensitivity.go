// Package sensitivity calcula coeficientes de sensibilidad normalizados
// perturbando los montos de producto de un modelo LCAbyg.
//
// Los umbrales siguen a Hauschild, Rosenbaum y Olsen, "Life Cycle Assessment:
// Theory and Practice" (2018), p. 1083.
package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/PhelGc/lcabyg-sensitivity/internal/model"
	"github.com/PhelGc/lcabyg-sensitivity/internal/results"
)

// DefaultPerturbation fracción usada cuando Run recibe 0
const DefaultPerturbation = 0.1

// ErrDegenerateBaseline el coeficiente no está definido (división por cero)
var ErrDegenerateBaseline = errors.New("línea base degenerada: coeficiente indefinido")

// Evaluator recalcula el impacto de un modelo serializado
type Evaluator interface {
	Evaluate(ctx context.Context, serializedModel []byte) (*results.ImpactResult, error)
}

// EvaluationError envuelve un fallo del servicio de evaluación
type EvaluationError struct {
	EdgeID string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluando arista %s: %v", e.EdgeID, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Record resultado de perturbar un parámetro. No se modifica después de creado.
type Record struct {
	EdgeID         string  `json:"edge_id" yaml:"edge_id"`
	FromID         string  `json:"from_id" yaml:"from_id"`
	ProductID      string  `json:"product_id" yaml:"product_id"`
	Name           string  `json:"name,omitempty" yaml:"name,omitempty"`
	BaseValue      float64 `json:"base_value" yaml:"base_value"`
	PerturbedValue float64 `json:"perturbed_value" yaml:"perturbed_value"`
	BaseImpact     float64 `json:"base_impact" yaml:"base_impact"`
	NewImpact      float64 `json:"new_impact" yaml:"new_impact"`
	Coefficient    float64 `json:"coefficient" yaml:"coefficient"`
	Level          Level   `json:"level" yaml:"level"`
}

// Label nombre legible del parámetro; el id del producto si no hay nombre
func (r Record) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ProductID
}

// Options ajusta el comportamiento de Engine
type Options struct {
	// Cumulative deja cada perturbación aplicada al pasar a la siguiente
	// arista, de modo que los efectos se acumulan. Por defecto cada arista
	// se evalúa de forma aislada y se restaura su monto original.
	Cumulative bool
}

// Engine ejecuta el análisis de sensibilidad contra un Evaluator
type Engine struct {
	evaluator Evaluator
	opts      Options
}

// NewEngine crea un motor de sensibilidad
func NewEngine(evaluator Evaluator, opts Options) *Engine {
	return &Engine{evaluator: evaluator, opts: opts}
}

// Run perturba cada arista ConstructionToProduct de m, en orden, y devuelve un
// Record por arista. m no se modifica: el motor trabaja sobre una copia.
// El primer error aborta el resto de perturbaciones.
func (e *Engine) Run(ctx context.Context, m model.File, baselineImpact, fraction float64) ([]Record, error) {
	if fraction == 0 {
		fraction = DefaultPerturbation
	}

	working := m.Clone()
	edges := working.ConstructionToProducts()
	records := make([]Record, 0, len(edges))

	for _, edge := range edges {
		content := edge.Content.(*model.ConstructionToProduct)

		baseValue := content.Amount
		if baselineImpact == 0 || baseValue == 0 {
			return records, fmt.Errorf("arista %s (monto %v, impacto base %v): %w",
				content.ID, baseValue, baselineImpact, ErrDegenerateBaseline)
		}

		perturbed := baseValue * fraction
		content.Amount = perturbed
		log.Printf("Perturbando arista %s: monto %v -> %v", content.ID, baseValue, perturbed)

		rec, err := e.evaluate(ctx, working, edge, content.ID, baseValue, perturbed, baselineImpact)
		if !e.opts.Cumulative {
			content.Amount = baseValue
		}
		if err != nil {
			return records, err
		}

		log.Printf("Nuevo impacto %v, coeficiente %v: sensibilidad %s", rec.NewImpact, rec.Coefficient, rec.Level)
		records = append(records, rec)
	}

	return records, nil
}

func (e *Engine) evaluate(ctx context.Context, working model.File, edge *model.Edge, edgeID string,
	baseValue, perturbed, baselineImpact float64) (Record, error) {
	data, err := working.Marshal()
	if err != nil {
		return Record{}, fmt.Errorf("serializando modelo: %w", err)
	}

	result, err := e.evaluator.Evaluate(ctx, data)
	if err != nil {
		return Record{}, &EvaluationError{EdgeID: edgeID, Err: err}
	}

	newImpact, err := results.ExtractAggregateImpact(result)
	if err != nil {
		return Record{}, fmt.Errorf("arista %s: %w", edgeID, err)
	}

	coeff, err := Coefficient(baseValue, perturbed, baselineImpact, newImpact)
	if err != nil {
		return Record{}, fmt.Errorf("arista %s: %w", edgeID, err)
	}

	name, _ := results.ExtractDisplayName(result, edge.To)

	return Record{
		EdgeID:         edgeID,
		FromID:         edge.From,
		ProductID:      edge.To,
		Name:           name,
		BaseValue:      baseValue,
		PerturbedValue: perturbed,
		BaseImpact:     baselineImpact,
		NewImpact:      newImpact,
		Coefficient:    coeff,
		Level:          Classify(coeff),
	}, nil
}

// Coefficient cambio relativo del impacto dividido por el cambio relativo del
// parámetro. Devuelve ErrDegenerateBaseline en vez de Inf o NaN.
func Coefficient(baseValue, perturbedValue, baseImpact, newImpact float64) (float64, error) {
	if baseImpact == 0 || baseValue == 0 {
		return 0, ErrDegenerateBaseline
	}

	fractionImpact := math.Abs(newImpact-baseImpact) / baseImpact
	fractionValue := math.Abs(perturbedValue-baseValue) / baseValue
	if fractionValue == 0 {
		return 0, fmt.Errorf("el parámetro no cambió: %w", ErrDegenerateBaseline)
	}

	return fractionImpact / fractionValue, nil
}
