package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if c.App.Env != "dev" {
		t.Fatalf("app env %q want dev", c.App.Env)
	}
	if c.Server.Addr != ":8080" || c.Server.InternalAddr != ":8081" {
		t.Fatalf("addrs %q %q", c.Server.Addr, c.Server.InternalAddr)
	}
	if c.Cache.Kind != "memory" || c.Push.Kind != "local" {
		t.Fatalf("kinds %q %q", c.Cache.Kind, c.Push.Kind)
	}
	if c.Stream.BatchSize != 100 || c.Stream.Consumer != "broadcaster" {
		t.Fatalf("stream %+v", c.Stream)
	}
	if c.Auth.Anonymous != "anonymous" {
		t.Fatalf("anonymous %q", c.Auth.Anonymous)
	}
	if c.Rate.MaxRequests != 120 || c.Rate.RedeemMaxRequests != 10 {
		t.Fatalf("rate %+v", c.Rate)
	}
	if c.RateWindow() != time.Minute || c.RateRedeemWindow() != time.Minute {
		t.Fatalf("ventanas %v %v", c.RateWindow(), c.RateRedeemWindow())
	}
	if c.Email.InviteExpiresDays != 7 {
		t.Fatalf("invite expiry %d", c.Email.InviteExpiresDays)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	raw := `
server:
  addr: ":7000"
cache:
  kind: redis
  ttl: 5m
  redis:
    addr: "localhost:6379"
push:
  kind: redis
rate:
  redeem_window: 30s
  redeem_max_requests: 3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Server.Addr != ":7000" {
		t.Fatalf("addr %q", c.Server.Addr)
	}
	if c.Cache.Kind != "redis" || c.CacheTTL() != 5*time.Minute {
		t.Fatalf("cache %q %v", c.Cache.Kind, c.CacheTTL())
	}
	if c.Push.Kind != "redis" {
		t.Fatalf("push %q", c.Push.Kind)
	}
	if c.Rate.RedeemMaxRequests != 3 || c.RateRedeemWindow() != 30*time.Second {
		t.Fatalf("redeem %d %v", c.Rate.RedeemMaxRequests, c.RateRedeemWindow())
	}
	// Lo no seteado conserva el default.
	if c.Server.InternalAddr != ":8081" {
		t.Fatalf("internal addr %q", c.Server.InternalAddr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("AUTH_ANONYMOUS", "guest")
	t.Setenv("RATE_REDEEM_MAX_REQUESTS", "5")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if c.Server.Addr != ":9999" {
		t.Fatalf("addr %q", c.Server.Addr)
	}
	if c.Auth.Anonymous != "guest" {
		t.Fatalf("anonymous %q", c.Auth.Anonymous)
	}
	if c.Rate.RedeemMaxRequests != 5 {
		t.Fatalf("redeem max %d", c.Rate.RedeemMaxRequests)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(c.Server.CORSAllowedOrigins) != 2 || c.Server.CORSAllowedOrigins[0] != want[0] || c.Server.CORSAllowedOrigins[1] != want[1] {
		t.Fatalf("cors %v", c.Server.CORSAllowedOrigins)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"duración rota", map[string]string{"RATE_WINDOW": "nope"}, "rate.window"},
		{"push http sin endpoint", map[string]string{"PUSH_KIND": "http"}, "push.endpoint"},
		{"push redis sin addr", map[string]string{"PUSH_KIND": "redis"}, "redis addr"},
		{"cache desconocido", map[string]string{"CACHE_KIND": "disk"}, "cache.kind"},
		{"batch inválido", map[string]string{"STREAM_BATCH_SIZE": "-1"}, "batch_size"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("want error con %q, got %v", c.want, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml")); err == nil {
		t.Fatalf("archivo inexistente debió fallar")
	}
}
