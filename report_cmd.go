package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PhelGc/lcabyg-sensitivity/internal/database"
	"github.com/PhelGc/lcabyg-sensitivity/internal/report"
	"github.com/PhelGc/lcabyg-sensitivity/internal/sensitivity"
)

func newReportCmd(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "report <nombre>",
		Short: "Muestra un reporte de sensibilidad guardado en el storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.store.ReportExists(args[0]) {
				return fmt.Errorf("no existe el reporte %s", args[0])
			}
			rep, err := a.store.LoadReport(args[0])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep, width)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 40, "largo máximo de las barras del gráfico")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "run <run-id>",
		Short: "Muestra una ejecución guardada en MySQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Database.Enabled() {
				return errors.New("DB_HOST no configurado")
			}

			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			stored, err := db.GetRun(args[0])
			if err != nil {
				return err
			}
			rep, err := storedReport(args[0], stored)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep, width)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 40, "largo máximo de las barras del gráfico")
	return cmd
}

// storedReport rearma el reporte de una ejecución a partir de sus filas en BD
func storedReport(runID string, stored []database.StoredRecord) (*report.Report, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("la ejecución %s no tiene registros", runID)
	}

	records := make([]sensitivity.Record, 0, len(stored))
	for _, s := range stored {
		records = append(records, s.Record)
	}

	first := stored[0]
	rep := &report.Report{
		RunID:          runID,
		BaselineImpact: first.BaseImpact,
		CreatedAt:      first.CreatedAt,
		Records:        records,
	}
	if first.BaseValue != 0 {
		rep.Perturbation = first.PerturbedValue / first.BaseValue
	}
	return rep, nil
}
