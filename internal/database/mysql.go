package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/PhelGc/lcabyg-sensitivity/internal/sensitivity"
)

type Client struct {
	db *sql.DB
}

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// StoredRecord registro de sensibilidad tal como se guarda en BD
type StoredRecord struct {
	RunID string
	sensitivity.Record
	CreatedAt time.Time
}

// DSN cadena de conexión para el driver de MySQL
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

func NewClient(config *Config) (*Client, error) {
	db, err := sql.Open("mysql", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error conectando a MySQL: %w", err)
	}

	// El análisis es secuencial: pocas conexiones bastan
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error haciendo ping a MySQL: %w", err)
	}

	log.Printf("Conexión establecida con MySQL: %s:%s", config.Host, config.Port)

	return &Client{db: db}, nil
}

// CreateTable crea la tabla sensitivity_records si no existe
func (c *Client) CreateTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS sensitivity_records (
		id              INT AUTO_INCREMENT PRIMARY KEY,
		run_id          CHAR(36)     NOT NULL,
		position        INT          NOT NULL,
		edge_id         VARCHAR(64)  NOT NULL,
		from_id         VARCHAR(64)  NOT NULL,
		product_id      VARCHAR(64)  NOT NULL,
		name            VARCHAR(255) NOT NULL DEFAULT '',
		base_value      DOUBLE       NOT NULL,
		perturbed_value DOUBLE       NOT NULL,
		base_impact     DOUBLE       NOT NULL,
		new_impact      DOUBLE       NOT NULL,
		coefficient     DOUBLE       NOT NULL,
		level           VARCHAR(16)  NOT NULL,
		created_at      DATETIME     DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY unique_run_position (run_id, position),
		INDEX idx_product (product_id)
	);`

	_, err := c.db.Exec(query)
	if err != nil {
		return fmt.Errorf("error creando tabla sensitivity_records: %w", err)
	}

	log.Println("Tabla sensitivity_records verificada/creada exitosamente")
	return nil
}

// SaveRun guarda todos los registros de una ejecución en una sola transacción
func (c *Client) SaveRun(runID string, records []sensitivity.Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("error iniciando transacción: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO sensitivity_records
		(run_id, position, edge_id, from_id, product_id, name,
		 base_value, perturbed_value, base_impact, new_impact, coefficient, level)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparando insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.Exec(runID, i, r.EdgeID, r.FromID, r.ProductID, r.Name,
			r.BaseValue, r.PerturbedValue, r.BaseImpact, r.NewImpact, r.Coefficient, string(r.Level))
		if err != nil {
			return fmt.Errorf("error guardando registro %s de la ejecución %s: %w", r.EdgeID, runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error confirmando ejecución %s: %w", runID, err)
	}
	return nil
}

// GetRun obtiene los registros de una ejecución en su orden original
func (c *Client) GetRun(runID string) ([]StoredRecord, error) {
	query := `SELECT run_id, edge_id, from_id, product_id, name, base_value, perturbed_value,
		base_impact, new_impact, coefficient, level, created_at
		FROM sensitivity_records WHERE run_id = ? ORDER BY position`

	rows, err := c.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("error consultando ejecución %s: %w", runID, err)
	}
	defer rows.Close()

	var stored []StoredRecord
	for rows.Next() {
		var s StoredRecord
		var level string
		err := rows.Scan(&s.RunID, &s.EdgeID, &s.FromID, &s.ProductID, &s.Name, &s.BaseValue,
			&s.PerturbedValue, &s.BaseImpact, &s.NewImpact, &s.Coefficient, &level, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error escaneando registro: %w", err)
		}
		s.Level = sensitivity.Level(level)
		stored = append(stored, s)
	}

	return stored, rows.Err()
}

// Close cierra la conexión con la base de datos
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
