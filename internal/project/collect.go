// Package project reúne los archivos JSON de uno o varios proyectos LCAbyg en
// la lista única de registros que espera un job.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CollectJSON recorre cada ruta (directorio o archivo) y concatena los registros
// de todos los archivos .json. Cada archivo debe contener una lista JSON. Las
// rutas en skip se ignoran.
func CollectJSON(paths []string, skip ...string) ([]json.RawMessage, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(expandHome(s)); err == nil {
			skipped[abs] = true
		}
	}

	collected := []json.RawMessage{}
	for _, start := range paths {
		start = expandHome(start)

		info, err := os.Stat(start)
		if err != nil {
			return nil, fmt.Errorf("no se pudo abrir %s: %w", start, err)
		}

		if !info.IsDir() {
			if abs, err := filepath.Abs(start); err == nil && skipped[abs] {
				continue
			}
			records, err := readRecords(start)
			if err != nil {
				return nil, err
			}
			collected = append(collected, records...)
			continue
		}

		err = filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
				return nil
			}
			if abs, err := filepath.Abs(path); err == nil && skipped[abs] {
				return nil
			}

			records, err := readRecords(path)
			if err != nil {
				return err
			}
			collected = append(collected, records...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return collected, nil
}

func readRecords(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error leyendo %s: %w", path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s debe contener una lista JSON: %w", path, err)
	}
	return records, nil
}

// expandHome reemplaza un ~ inicial por el directorio del usuario
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
