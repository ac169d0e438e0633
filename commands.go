package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/PhelGc/lcabyg-sensitivity/internal/config"
	"github.com/PhelGc/lcabyg-sensitivity/internal/lcabyg"
	"github.com/PhelGc/lcabyg-sensitivity/internal/project"
	"github.com/PhelGc/lcabyg-sensitivity/internal/storage"
)

// app dependencias compartidas por los subcomandos
type app struct {
	cfg   *config.Config
	api   *lcabyg.Client
	store *storage.Storage
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "lcabyg",
		Short: "Cliente de la API web de LCAbyg y análisis de sensibilidad",
		Long: `lcabyg envía proyectos LCAbyg a la API web, espera el cálculo y
descarga los resultados. El subcomando sensitivity perturba los montos de
producto de un modelo y clasifica la sensibilidad del GWP del edificio.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsSetup(cmd) {
				return nil
			}
			return a.setup()
		},
	}

	rootCmd.AddCommand(
		newPingCmd(a),
		newSubmitCmd(a),
		newJobsCmd(a),
		newJobCmd(a),
		newInputCmd(a),
		newFinishCmd(a),
		newSensitivityCmd(a),
		newReportCmd(a),
		newRunCmd(a),
	)
	return rootCmd
}

// needsSetup false para help y completion, que no usan configuración ni API
func needsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// setup carga la configuración y crea el cliente y el almacenamiento
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargando configuración: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("inicializando storage: %w", err)
	}

	a.cfg = cfg
	a.api = lcabyg.NewClient(cfg.LCAbyg)
	a.store = store
	return nil
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verifica la conexión con y sin login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pong, err := a.api.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ping: %s\n", pong)

			pong, err = a.api.PingSecure(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ping_secure: %s\n", pong)
			return nil
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "submit <ruta del proyecto>...",
		Short: "Envía un job por cada ruta de proyecto y guarda los resultados",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			for _, projectPath := range args {
				records, err := project.CollectJSON([]string{projectPath})
				if err != nil {
					return err
				}

				newJob, err := lcabyg.PackProject(a.api.Target(), records)
				if err != nil {
					return err
				}

				job, out, err := a.api.SubmitJob(ctx, newJob)
				if err != nil {
					return fmt.Errorf("%s: %w", projectPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", projectPath, job.Status)

				name := output
				if len(args) > 1 {
					name = job.ID
				}
				path, err := a.store.SaveJobOutput(name, out)
				if err != nil {
					return err
				}
				log.Printf("Resultados del job %s guardados en %s", job.ID, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "results.json", "nombre del archivo de resultados (con varias rutas se usa el id del job)")
	return cmd
}

func newJobsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Lista los ids de todos los jobs de la cuenta",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.api.ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newJobCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Muestra el estado de un job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.api.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, job)
		},
	}
}

func newInputCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "input <id>",
		Short: "Muestra el modelo de entrada decodificado de un job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.api.GetJobInput(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, input)
		},
	}
}

func newFinishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "finish <id>",
		Short: "Marca un job como terminado (solo una vez por job)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.MarkJobFinished(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s marcado como terminado\n", args[0])
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
