package evaluator

import (
	"encoding/json"
	"fmt"

	"github.com/PhelGc/lcabyg-sensitivity/internal/project"
)

// Project almacena los registros del proyecto que no cambian entre evaluaciones.
// Se cargan una sola vez al iniciar para evitar I/O repetido en cada evaluación.
type Project struct {
	Records []json.RawMessage
}

// LoadProject lee los directorios del proyecto, excluyendo el archivo del modelo
// que se va a perturbar. Falla explícitamente si alguna ruta no existe.
func LoadProject(paths []string, modelPath string) (*Project, error) {
	records, err := project.CollectJSON(paths, modelPath)
	if err != nil {
		return nil, fmt.Errorf("no se pudo cargar el proyecto: %w", err)
	}
	return &Project{Records: records}, nil
}
