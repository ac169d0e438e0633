package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PhelGc/lcabyg-sensitivity/internal/report"
)

// Storage maneja el almacenamiento de resultados de jobs y reportes en disco
type Storage struct {
	basePath string
}

// New crea una nueva instancia de Storage
func New(basePath string) (*Storage, error) {
	// Crear directorio base si no existe
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}

	return &Storage{
		basePath: basePath,
	}, nil
}

// SaveJobOutput guarda la salida decodificada de un job con sangría.
// Devuelve la ruta del archivo escrito.
func (s *Storage) SaveJobOutput(name string, output json.RawMessage) (string, error) {
	var pretty any
	if err := json.Unmarshal(output, &pretty); err != nil {
		return "", fmt.Errorf("la salida del job no es JSON: %w", err)
	}

	data, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error serializando salida: %w", err)
	}

	filePath := filepath.Join(s.basePath, s.getFileName(name, ".json"))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("error guardando salida del job: %w", err)
	}
	return filePath, nil
}

// SaveReport guarda un reporte de sensibilidad. Se codifica en YAML si el nombre
// termina en .yaml o .yml, y en JSON en otro caso.
func (s *Storage) SaveReport(name string, rep *report.Report) (string, error) {
	fileName := s.getFileName(name, ".json")

	var (
		data []byte
		err  error
	)
	if isYAML(fileName) {
		data, err = yaml.Marshal(rep)
	} else {
		data, err = json.MarshalIndent(rep, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("error serializando reporte: %w", err)
	}

	filePath := filepath.Join(s.basePath, fileName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("error guardando reporte: %w", err)
	}
	return filePath, nil
}

// ReportExists verifica si ya existe un reporte con ese nombre
func (s *Storage) ReportExists(name string) bool {
	filePath := filepath.Join(s.basePath, s.getFileName(name, ".json"))
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// LoadReport carga un reporte guardado con SaveReport
func (s *Storage) LoadReport(name string) (*report.Report, error) {
	fileName := s.getFileName(name, ".json")
	data, err := os.ReadFile(filepath.Join(s.basePath, fileName))
	if err != nil {
		return nil, err
	}

	var rep report.Report
	if isYAML(fileName) {
		err = yaml.Unmarshal(data, &rep)
	} else {
		err = json.Unmarshal(data, &rep)
	}
	if err != nil {
		return nil, fmt.Errorf("error leyendo reporte %s: %w", fileName, err)
	}
	return &rep, nil
}

func isYAML(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".yaml" || ext == ".yml"
}

// getFileName genera un nombre de archivo válido, agregando ext si no tiene extensión
func (s *Storage) getFileName(name, ext string) string {
	// Reemplazar caracteres no válidos para nombres de archivo
	safe := strings.ReplaceAll(name, "/", "_")
	safe = strings.ReplaceAll(safe, "\\", "_")
	safe = strings.ReplaceAll(safe, ":", "_")
	if filepath.Ext(safe) == "" {
		safe += ext
	}
	return safe
}
