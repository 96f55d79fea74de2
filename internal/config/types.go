package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int             `yaml:"port"`
	DSN            string          `yaml:"dsn"` // MySQL DSN
	RedisURL       string          `yaml:"redis_url"`
	Env            string          `yaml:"env"` // "development" | "production"
	AllowedOrigins []string        `yaml:"allowed_origins"`
	JWTSecret      string          `yaml:"jwt_secret"`
	Timezone       string          `yaml:"timezone"`
	WebURL         string          `yaml:"web_url"` // public base URL used in emails
	Paths          PathsConfig     `yaml:"paths"`
	Mail           MailConfig      `yaml:"mail"`
	AI             AIConfig        `yaml:"ai"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
	S3             S3Options       `yaml:"s3"`
	Bark           BarkOptions     `yaml:"bark"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }

type PathsConfig struct {
	Logs    string `yaml:"logs"`
	Backups string `yaml:"backups"`
}

// MailConfig holds mail provider settings.
type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Pass      string `yaml:"pass"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	UseResend bool   `yaml:"use_resend"`
	ResendKey string `yaml:"resend_key"`
}

// AIConfig lists the configured text-generation providers.
type AIConfig struct {
	Providers   []AIProvider       `yaml:"providers"`
	PromptModel *AIModelAssignment `yaml:"prompt_model,omitempty"`
}

type AIModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic | OpenRouter
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// SchedulerConfig tunes the background delivery cycle.
type SchedulerConfig struct {
	Enable             bool `yaml:"enable"`
	LogRetentionDays   int  `yaml:"log_retention_days"`
	DevDryRun          bool `yaml:"dev_dry_run"`
	FailureAlertStreak int  `yaml:"failure_alert_streak"`
}

// S3Options configures optional backup uploads to an S3-compatible store.
type S3Options struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	PathTemplate    string `yaml:"path_template"`
}

// BarkOptions configures operator push alerts.
type BarkOptions struct {
	Enable    bool   `yaml:"enable"`
	Key       string `yaml:"key"`
	ServerURL string `yaml:"server_url"`
}
