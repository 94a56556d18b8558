package config

import (
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config application configuration
type Config struct {
	Port  int    `env:"PORT" env-default:"8080"`
	Mode  string `env:"GIN_MODE" env-default:"debug"`
	Debug bool   `env:"-"`

	MongoURI          string `env:"MONGO_URI" env-default:"mongodb://127.0.0.1:27017/?replicaSet=rs0"`
	MongoDB           string `env:"MONGO_DB" env-default:"ompro"`
	MongoTransactions bool   `env:"MONGO_TRANSACTIONS" env-default:"true"`
	TasksCollection   string `env:"TASKS_COLLECTION" env-default:"tasks"`

	JWTKey           string        `env:"JWT_KEY" env-default:"change-me"`
	JWTTTL           time.Duration `env:"JWT_TTL" env-default:"720h"`
	LoginEmailDomain string        `env:"LOGIN_EMAIL_DOMAIN" env-default:"ompro.com.br"`

	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173" env-separator:","`

	ImportBatchSize   int   `env:"IMPORT_BATCH_SIZE" env-default:"400"`
	ImportMaxUploadMB int64 `env:"IMPORT_MAX_UPLOAD_MB" env-default:"20"`

	SeedManagerEmail    string `env:"SEED_MANAGER_EMAIL" env-default:"gerente@ompro.com.br"`
	SeedManagerPassword string `env:"SEED_MANAGER_PASSWORD" env-default:"gerente123"`

	SheetsCredentialsFile string `env:"SHEETS_CREDENTIALS_FILE"`
	SheetsSpreadsheetID   string `env:"SHEETS_SPREADSHEET_ID"`
	SheetsSheetName       string `env:"SHEETS_SHEET_NAME" env-default:"Relatorio"`

	ReportTimezone string `env:"REPORT_TIMEZONE" env-default:"America/Sao_Paulo"`
}

// MaxImportBatchSize is the largest write batch the store accepts in one commit.
const MaxImportBatchSize = 500

// LoadConfig reads the configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Location time zone used to render report timestamps; unknown zones fall back to local time
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SheetsEnabled reports whether Google Sheets export is configured
func (c *Config) SheetsEnabled() bool {
	return c.SheetsCredentialsFile != "" && c.SheetsSpreadsheetID != ""
}

func (c *Config) normalize() {
	c.Debug = c.Mode == "debug"
	if c.ImportBatchSize <= 0 {
		c.ImportBatchSize = 400
	}
	if c.ImportBatchSize > MaxImportBatchSize {
		c.ImportBatchSize = MaxImportBatchSize
	}
	if c.ImportMaxUploadMB <= 0 {
		c.ImportMaxUploadMB = 20
	}
	c.LoginEmailDomain = strings.TrimPrefix(strings.TrimSpace(c.LoginEmailDomain), "@")
	if c.TasksCollection == "" {
		c.TasksCollection = "tasks"
	}
}
