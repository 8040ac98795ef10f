package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda "dev".
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		InternalAddr       string   `yaml:"internal_addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		TTL   string `yaml:"ttl"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	// Push define cómo el dispatcher alcanza las conexiones WebSocket.
	Push struct {
		Kind          string `yaml:"kind"` // local | http | redis
		Endpoint      string `yaml:"endpoint"`
		Timeout       string `yaml:"timeout"`
		ChannelPrefix string `yaml:"channel_prefix"`
	} `yaml:"push"`

	// Stream configura el consumidor del changelog.
	Stream struct {
		Consumer     string `yaml:"consumer"`
		PollInterval string `yaml:"poll_interval"`
		BatchSize    int    `yaml:"batch_size"`
	} `yaml:"stream"`

	WS struct {
		ReadLimit    int64  `yaml:"read_limit"`
		WriteTimeout string `yaml:"write_timeout"`
		PingInterval string `yaml:"ping_interval"`
		PongTimeout  string `yaml:"pong_timeout"`
	} `yaml:"ws"`

	Auth struct {
		// JWTSecret verifica tokens emitidos por el identity provider externo.
		JWTSecret string `yaml:"jwt_secret"`
		// Anonymous es la identidad usada cuando no hay token ni query param.
		Anonymous string `yaml:"anonymous"`
	} `yaml:"auth"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
		// Presupuesto estricto para el canje de invites.
		RedeemWindow      string `yaml:"redeem_window"`
		RedeemMaxRequests int    `yaml:"redeem_max_requests"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Email struct {
		FrontendURL       string `yaml:"frontend_url"`
		InviteExpiresDays int    `yaml:"invite_expires_days"`
	} `yaml:"email"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML en path, completa defaults y aplica los overrides por
// variables de entorno. Path vacío = sin archivo, sólo defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.InternalAddr == "" {
		c.Server.InternalAddr = ":8081"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "2m"
	}
	if c.Push.Kind == "" {
		c.Push.Kind = "local"
	}
	if c.Push.Timeout == "" {
		c.Push.Timeout = "5s"
	}
	if c.Push.ChannelPrefix == "" {
		c.Push.ChannelPrefix = "easel:push:"
	}
	if c.Stream.Consumer == "" {
		c.Stream.Consumer = "broadcaster"
	}
	if c.Stream.PollInterval == "" {
		c.Stream.PollInterval = "250ms"
	}
	if c.Stream.BatchSize == 0 {
		c.Stream.BatchSize = 100
	}
	if c.WS.ReadLimit == 0 {
		c.WS.ReadLimit = 64 * 1024
	}
	if c.WS.WriteTimeout == "" {
		c.WS.WriteTimeout = "10s"
	}
	if c.WS.PingInterval == "" {
		c.WS.PingInterval = "30s"
	}
	if c.WS.PongTimeout == "" {
		c.WS.PongTimeout = "60s"
	}
	if c.Auth.Anonymous == "" {
		c.Auth.Anonymous = "anonymous"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 120
	}
	if c.Rate.RedeemWindow == "" {
		c.Rate.RedeemWindow = "1m"
	}
	if c.Rate.RedeemMaxRequests == 0 {
		c.Rate.RedeemMaxRequests = 10
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Email.InviteExpiresDays == 0 {
		c.Email.InviteExpiresDays = 7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_INTERNAL_ADDR"); ok {
		c.Server.InternalAddr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvStr("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}
	if v, ok := getEnvStr("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_TTL"); ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// PUSH
	if v, ok := getEnvStr("PUSH_KIND"); ok {
		c.Push.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("PUSH_ENDPOINT"); ok {
		c.Push.Endpoint = v
	}
	if v, ok := getEnvStr("PUSH_TIMEOUT"); ok {
		c.Push.Timeout = v
	}
	if v, ok := getEnvStr("PUSH_CHANNEL_PREFIX"); ok {
		c.Push.ChannelPrefix = v
	}

	// STREAM
	if v, ok := getEnvStr("STREAM_CONSUMER"); ok {
		c.Stream.Consumer = v
	}
	if v, ok := getEnvStr("STREAM_POLL_INTERVAL"); ok {
		c.Stream.PollInterval = v
	}
	if v, ok := getEnvInt("STREAM_BATCH_SIZE"); ok {
		c.Stream.BatchSize = v
	}

	// WS
	if v, ok := getEnvInt64("WS_READ_LIMIT"); ok {
		c.WS.ReadLimit = v
	}
	if v, ok := getEnvStr("WS_WRITE_TIMEOUT"); ok {
		c.WS.WriteTimeout = v
	}
	if v, ok := getEnvStr("WS_PING_INTERVAL"); ok {
		c.WS.PingInterval = v
	}
	if v, ok := getEnvStr("WS_PONG_TIMEOUT"); ok {
		c.WS.PongTimeout = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getEnvStr("AUTH_ANONYMOUS"); ok {
		c.Auth.Anonymous = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_REDEEM_WINDOW"); ok {
		c.Rate.RedeemWindow = v
	}
	if v, ok := getEnvInt("RATE_REDEEM_MAX_REQUESTS"); ok {
		c.Rate.RedeemMaxRequests = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v) // auto|starttls|ssl|none
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// EMAIL
	if v, ok := getEnvStr("EMAIL_FRONTEND_URL"); ok {
		c.Email.FrontendURL = v
	}
	if v, ok := getEnvInt("EMAIL_INVITE_EXPIRES_DAYS"); ok {
		c.Email.InviteExpiresDays = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}

	// ADMIN
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Admin.APIKey = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate valida duraciones y combinaciones críticas antes de arrancar.
func (c *Config) Validate() error {
	durations := map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"cache.ttl":               c.Cache.TTL,
		"push.timeout":            c.Push.Timeout,
		"stream.poll_interval":    c.Stream.PollInterval,
		"ws.write_timeout":        c.WS.WriteTimeout,
		"ws.ping_interval":        c.WS.PingInterval,
		"ws.pong_timeout":         c.WS.PongTimeout,
		"rate.window":             c.Rate.Window,
		"rate.redeem_window":      c.Rate.RedeemWindow,
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		durations["storage.postgres.conn_max_lifetime"] = c.Storage.Postgres.ConnMaxLifetime
	}
	for name, raw := range durations {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("config: invalid duration for %s: %q", name, raw)
		}
	}

	switch c.Push.Kind {
	case "local", "http", "redis":
	default:
		return fmt.Errorf("config: unknown push.kind %q", c.Push.Kind)
	}
	if c.Push.Kind == "http" && strings.TrimSpace(c.Push.Endpoint) == "" {
		return fmt.Errorf("config: push.kind=http requires push.endpoint")
	}
	if c.Push.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: push.kind=redis requires redis addr")
	}

	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}

	if c.Stream.BatchSize < 1 {
		return fmt.Errorf("config: stream.batch_size must be >= 1")
	}
	return nil
}

// Duration helpers: la validación ya garantizó el parseo.

func (c *Config) ReadTimeout() time.Duration      { return mustDur(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration     { return mustDur(c.Server.WriteTimeout) }
func (c *Config) ShutdownTimeout() time.Duration  { return mustDur(c.Server.ShutdownTimeout) }
func (c *Config) CacheTTL() time.Duration         { return mustDur(c.Cache.TTL) }
func (c *Config) PushTimeout() time.Duration      { return mustDur(c.Push.Timeout) }
func (c *Config) PollInterval() time.Duration     { return mustDur(c.Stream.PollInterval) }
func (c *Config) WSWriteTimeout() time.Duration   { return mustDur(c.WS.WriteTimeout) }
func (c *Config) WSPingInterval() time.Duration   { return mustDur(c.WS.PingInterval) }
func (c *Config) WSPongTimeout() time.Duration    { return mustDur(c.WS.PongTimeout) }
func (c *Config) RateWindow() time.Duration       { return mustDur(c.Rate.Window) }
func (c *Config) RateRedeemWindow() time.Duration { return mustDur(c.Rate.RedeemWindow) }

func mustDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
