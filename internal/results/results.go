// Package results lee la salida decodificada de un job de LCAbyg.
//
// Los resultados se organizan en tres niveles bajo el id de cada instancia del
// modelo: etapa o agregación ("Sum"), año (9999 representa la suma de todos
// los años) y categoría de impacto ("GWP").
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PhelGc/lcabyg-sensitivity/internal/model"
)

// Coordenada fija del impacto agregado del edificio
const (
	BuildingNodeType        = "Building"
	ProductInstanceNodeType = "ProductInstance"
	SumStage                = "Sum"
	AllYears                = "9999"
	GWP                     = "GWP"
)

// ErrMissingSchema indica que la salida no tiene la forma esperada
var ErrMissingSchema = errors.New("resultado sin el esquema esperado")

// MissingKeyError detalla qué clave faltó en la salida
type MissingKeyError struct {
	Path []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("falta la clave %q en el resultado", strings.Join(e.Path, "/"))
}

// Is permite errors.Is(err, ErrMissingSchema)
func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMissingSchema
}

// ImpactResult salida de un job: el modelo calculado y los resultados por instancia
type ImpactResult struct {
	Model   []ModelEntry               `json:"model"`
	Results map[string]json.RawMessage `json:"results"`
}

// ModelEntry instancia del modelo calculado
type ModelEntry struct {
	NodeType string     `json:"node_type"`
	ID       string     `json:"id"`
	ModelID  string     `json:"model_id,omitempty"`
	Name     model.Name `json:"name"`
}

// Decode construye un ImpactResult a partir de la salida del job
func Decode(data []byte) (*ImpactResult, error) {
	var result ImpactResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("error parseando resultado: %w", err)
	}
	if result.Model == nil {
		return nil, &MissingKeyError{Path: []string{"model"}}
	}
	if result.Results == nil {
		return nil, &MissingKeyError{Path: []string{"results"}}
	}
	return &result, nil
}

// ExtractAggregateImpact devuelve el GWP total del edificio:
// results[<id Building>]["Sum"]["9999"]["GWP"]
func ExtractAggregateImpact(result *ImpactResult) (float64, error) {
	if result == nil {
		return 0, &MissingKeyError{Path: []string{"model"}}
	}

	buildingID := ""
	for _, entry := range result.Model {
		if entry.NodeType == BuildingNodeType {
			buildingID = entry.ID
			break
		}
	}
	if buildingID == "" {
		return 0, fmt.Errorf("no hay nodo %s en el modelo: %w", BuildingNodeType, ErrMissingSchema)
	}

	return Lookup(result, buildingID, SumStage, AllYears, GWP)
}

// Lookup recorre results[id][etapa][año][categoría] y devuelve el valor numérico
func Lookup(result *ImpactResult, instanceID, stage, year, category string) (float64, error) {
	path := []string{"results", instanceID}
	raw, ok := result.Results[instanceID]
	if !ok {
		return 0, &MissingKeyError{Path: path}
	}

	for _, key := range []string{stage, year, category} {
		var level map[string]json.RawMessage
		if err := json.Unmarshal(raw, &level); err != nil {
			return 0, &MissingKeyError{Path: append(path, key)}
		}
		path = append(path, key)
		raw, ok = level[key]
		if !ok {
			return 0, &MissingKeyError{Path: path}
		}
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("%s no es numérico: %w", strings.Join(path, "/"), ErrMissingSchema)
	}
	return value, nil
}

// ExtractDisplayName busca el nombre del ProductInstance cuyo model_id coincide
// con productID. El id propio de la instancia no se compara.
func ExtractDisplayName(result *ImpactResult, productID string) (string, bool) {
	if result == nil {
		return "", false
	}
	for _, entry := range result.Model {
		if entry.NodeType != ProductInstanceNodeType {
			continue
		}
		if entry.ModelID == productID {
			name := entry.Name.First()
			return name, name != ""
		}
	}
	return "", false
}
