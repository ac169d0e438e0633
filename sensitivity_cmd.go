package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/PhelGc/lcabyg-sensitivity/internal/database"
	"github.com/PhelGc/lcabyg-sensitivity/internal/discord"
	"github.com/PhelGc/lcabyg-sensitivity/internal/evaluator"
	"github.com/PhelGc/lcabyg-sensitivity/internal/model"
	"github.com/PhelGc/lcabyg-sensitivity/internal/report"
	"github.com/PhelGc/lcabyg-sensitivity/internal/results"
	"github.com/PhelGc/lcabyg-sensitivity/internal/sensitivity"
)

type sensitivityOptions struct {
	projectPaths []string
	perturbation float64
	cumulative   bool
	reportName   string
	notify       bool
	replaceID    string
	chartWidth   int
}

func newSensitivityCmd(a *app) *cobra.Command {
	opts := sensitivityOptions{}

	cmd := &cobra.Command{
		Use:   "sensitivity <modelo.json>",
		Short: "Perturba los montos de producto del modelo y calcula la sensibilidad del GWP",
		Long: `Calcula el impacto base del modelo, perturba uno a uno los montos de
las aristas ConstructionToProduct (monto * perturbación) y clasifica el
coeficiente de sensibilidad normalizado de cada producto.

Las rutas de --project se envían junto al modelo en cada job (edificio,
proyecto, productos). El archivo del modelo se excluye si está dentro.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]

			proj, err := evaluator.LoadProject(opts.projectPaths, modelPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.api.PingSecure(ctx); err != nil {
				return err
			}

			eval := evaluator.NewClient(a.api, proj)
			rep, err := runSensitivity(ctx, modelPath, opts, eval, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if a.store.ReportExists(opts.reportName) {
				log.Printf("Advertencia: el reporte %s ya existe y se sobrescribe", opts.reportName)
			}
			path, err := a.store.SaveReport(opts.reportName, rep)
			if err != nil {
				return err
			}
			log.Printf("Reporte guardado en %s", path)

			if a.cfg.Database.Enabled() {
				if err := saveRun(a, rep); err != nil {
					return err
				}
			}

			if opts.notify {
				if !a.cfg.Discord.Enabled() {
					log.Println("Advertencia: --notify sin DISCORD_BOT_TOKEN/DISCORD_CHANNEL_ID, se omite")
				} else if err := notify(a, rep, opts.replaceID); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&opts.projectPaths, "project", "p", nil, "directorio o archivo JSON del resto del proyecto (repetible)")
	cmd.Flags().Float64Var(&opts.perturbation, "perturbation", 0.9, "fracción que multiplica cada monto (0.9 = reducción del 10%)")
	cmd.Flags().BoolVar(&opts.cumulative, "cumulative", false, "no restaurar cada monto antes de perturbar el siguiente")
	cmd.Flags().StringVar(&opts.reportName, "report", "sensitivity.json", "nombre del reporte (.json, .yaml o .yml)")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "publicar el reporte en Discord")
	cmd.Flags().StringVar(&opts.replaceID, "replace", "", "id del mensaje de Discord del reporte anterior, se borra antes de publicar")
	cmd.Flags().IntVar(&opts.chartWidth, "width", 40, "largo máximo de las barras del gráfico")
	cmd.MarkFlagRequired("project")
	return cmd
}

// runSensitivity calcula el impacto base, ejecuta el motor e imprime el reporte
func runSensitivity(ctx context.Context, modelPath string, opts sensitivityOptions,
	eval sensitivity.Evaluator, out io.Writer) (*report.Report, error) {
	m, err := model.ReadFile(modelPath)
	if err != nil {
		return nil, err
	}

	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}

	log.Println("Calculando impacto base...")
	initial, err := eval.Evaluate(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("impacto base: %w", err)
	}
	baseline, err := results.ExtractAggregateImpact(initial)
	if err != nil {
		return nil, fmt.Errorf("impacto base: %w", err)
	}
	log.Printf("Impacto base: %v", baseline)

	engine := sensitivity.NewEngine(eval, sensitivity.Options{Cumulative: opts.cumulative})
	records, err := engine.Run(ctx, m, baseline, opts.perturbation)
	if err != nil {
		return nil, err
	}

	rep := &report.Report{
		RunID:          uuid.NewString(),
		Model:          filepath.Base(modelPath),
		BaselineImpact: baseline,
		Perturbation:   opts.perturbation,
		Cumulative:     opts.cumulative,
		CreatedAt:      time.Now().UTC(),
		Records:        records,
	}

	printReport(out, rep, opts.chartWidth)
	return rep, nil
}

func printReport(out io.Writer, rep *report.Report, width int) {
	fmt.Fprintln(out, report.Summary(rep))
	fmt.Fprintln(out, report.BarChart(rep.Records, width))
}

func (a *app) openDatabase() (*database.Client, error) {
	return database.NewClient(&database.Config{
		Host:     a.cfg.Database.Host,
		Port:     a.cfg.Database.Port,
		Username: a.cfg.Database.Username,
		Password: a.cfg.Database.Password,
		Database: a.cfg.Database.Database,
	})
}

func saveRun(a *app, rep *report.Report) error {
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTable(); err != nil {
		return err
	}
	if err := db.SaveRun(rep.RunID, rep.Records); err != nil {
		return err
	}
	log.Printf("Ejecución %s guardada en MySQL (%d registros)", rep.RunID, len(rep.Records))
	return nil
}

func notify(a *app, rep *report.Report, replaceID string) error {
	dc, err := discord.NewClient(&discord.Config{
		BotToken:  a.cfg.Discord.BotToken,
		ChannelID: a.cfg.Discord.ChannelID,
	})
	if err != nil {
		return err
	}
	defer dc.Close()

	messageID, err := dc.ReplaceSensitivityReport(replaceID, rep)
	if err != nil {
		return err
	}
	log.Printf("Reporte publicado en Discord (mensaje %s)", messageID)
	return nil
}
