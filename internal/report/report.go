// Package report agrupa el resultado de un análisis de sensibilidad y lo
// presenta en la terminal.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/PhelGc/lcabyg-sensitivity/internal/sensitivity"
)

// Report resultado completo de una ejecución del análisis
type Report struct {
	RunID          string               `json:"run_id" yaml:"run_id"`
	Model          string               `json:"model" yaml:"model"`
	BaselineImpact float64              `json:"baseline_impact" yaml:"baseline_impact"`
	Perturbation   float64              `json:"perturbation" yaml:"perturbation"`
	Cumulative     bool                 `json:"cumulative" yaml:"cumulative"`
	CreatedAt      time.Time            `json:"created_at" yaml:"created_at"`
	Records        []sensitivity.Record `json:"records" yaml:"records"`
}

// Colores de las barras según nivel
var levelColors = map[sensitivity.Level]lipgloss.Color{
	sensitivity.Low:      lipgloss.Color("#32CD32"), // limegreen
	sensitivity.Medium:   lipgloss.Color("#FFFF00"),
	sensitivity.High:     lipgloss.Color("#FF0000"),
	sensitivity.VeryHigh: lipgloss.Color("#FF0000"),
}

// LevelColor color de la barra para el nivel
func LevelColor(level sensitivity.Level) lipgloss.Color {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return levelColors[sensitivity.High]
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle()
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

// BarChart dibuja una barra horizontal por producto, proporcional al valor
// absoluto del coeficiente. width es el largo máximo de barra en celdas.
func BarChart(records []sensitivity.Record, width int) string {
	if len(records) == 0 {
		return mutedStyle.Render("Sin parámetros perturbados")
	}
	if width <= 0 {
		width = 40
	}

	maxCoeff := 0.0
	labelWidth := 0
	for _, r := range records {
		maxCoeff = math.Max(maxCoeff, math.Abs(r.Coefficient))
		labelWidth = max(labelWidth, lipgloss.Width(r.Label()))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sensitivity"))
	b.WriteString("\n")
	for _, r := range records {
		cells := 0
		if maxCoeff > 0 {
			cells = int(math.Round(math.Abs(r.Coefficient) / maxCoeff * float64(width)))
		}
		bar := lipgloss.NewStyle().Foreground(LevelColor(r.Level)).Render(strings.Repeat("█", cells))

		b.WriteString(labelStyle.Width(labelWidth).Render(r.Label()))
		b.WriteString(" │")
		b.WriteString(bar)
		b.WriteString(fmt.Sprintf(" %.3f (%s)\n", r.Coefficient, r.Level))
	}
	b.WriteString(mutedStyle.Render("Verde: baja, amarillo: media, rojo: alta o muy alta"))
	return b.String()
}

// Summary listado textual de cada perturbación
func Summary(rep *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Modelo: %s\n", rep.Model)
	fmt.Fprintf(&b, "Impacto base (GWP): %v\n", rep.BaselineImpact)
	fmt.Fprintf(&b, "Perturbación: %v (acumulativa: %t)\n", rep.Perturbation, rep.Cumulative)
	for _, r := range rep.Records {
		fmt.Fprintf(&b, "- %s: monto %v -> %v, impacto %v -> %v, coeficiente %.4f (%s)\n",
			r.Label(), r.BaseValue, r.PerturbedValue, r.BaseImpact, r.NewImpact, r.Coefficient, r.Level)
	}
	return b.String()
}
