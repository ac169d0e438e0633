package discord

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PhelGc/lcabyg-sensitivity/internal/report"
	"github.com/PhelGc/lcabyg-sensitivity/internal/sensitivity"
)

// Discord acepta como máximo 25 campos por embed
const maxEmbedFields = 25

type Client struct {
	session *discordgo.Session
	config  *Config
}

type Config struct {
	BotToken  string
	ChannelID string // Canal donde se publican los reportes
}

func NewClient(config *Config) (*Client, error) {
	session, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creando sesión Discord: %w", err)
	}

	return &Client{
		session: session,
		config:  config,
	}, nil
}

// SendSensitivityReport publica el resumen de una ejecución en el canal configurado
func (c *Client) SendSensitivityReport(rep *report.Report) (string, error) {
	embed := buildReportEmbed(rep)

	message, err := c.session.ChannelMessageSendEmbed(c.config.ChannelID, embed)
	if err != nil {
		return "", fmt.Errorf("error enviando mensaje a Discord: %w", err)
	}

	return message.ID, nil
}

// ReplaceSensitivityReport borra el reporte anterior (si hay id) y publica el nuevo.
// Si el borrado falla solo se registra una advertencia.
func (c *Client) ReplaceSensitivityReport(previousID string, rep *report.Report) (string, error) {
	if previousID != "" {
		if err := c.DeleteMessage(c.config.ChannelID, previousID); err != nil {
			log.Printf("Advertencia: %v", err)
		} else {
			log.Printf("Reporte anterior %s borrado de Discord", previousID)
		}
	}
	return c.SendSensitivityReport(rep)
}

// DeleteMessage borra un mensaje del canal
func (c *Client) DeleteMessage(channelID, messageID string) error {
	err := c.session.ChannelMessageDelete(channelID, messageID)
	if err != nil {
		return fmt.Errorf("error borrando mensaje de Discord: %w", err)
	}

	return nil
}

// levelColor mismo código de colores que el gráfico de barras
func levelColor(level sensitivity.Level) int {
	switch level {
	case sensitivity.Low:
		return 0x32CD32 // Verde
	case sensitivity.Medium:
		return 0xFFFF00 // Amarillo
	default:
		return 0xFF0000 // Rojo
	}
}

// buildReportEmbed construye el embed con un campo por parámetro perturbado
func buildReportEmbed(rep *report.Report) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(rep.Records))
	for i, r := range rep.Records {
		if i == maxEmbedFields {
			break
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   r.Label(),
			Value:  fmt.Sprintf("%.3f (%s)", r.Coefficient, r.Level),
			Inline: true,
		})
	}

	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Análisis de sensibilidad - %s", rep.Model),
		Description: fmt.Sprintf("Impacto base GWP: %v, perturbación %v", rep.BaselineImpact, rep.Perturbation),
		Color:       levelColor(sensitivity.Highest(rep.Records)),
		Fields:      fields,
		Timestamp:   createdAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Ejecución " + rep.RunID,
		},
	}
}

// Close cierra la conexión con Discord
func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
	}
}
