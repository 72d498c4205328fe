package fiber_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtime-config/runtime-config/internal/logger"
	adapter "github.com/runtime-config/runtime-config/internal/logger/adapter/fiber"
)

type accessEntry struct {
	IP     string `json:"IP"`
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	Actor  string `json:"actor"`
	Error  string `json:"error"`
}

var consoleLog = logger.Log{ //nolint:gochecknoglobals
	EnableAccessLogToConsole: true,
	Console:                  logger.Console{Enabled: true},
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config adapter.Config
		target string
		want   *accessEntry
	}{
		{
			name:   "console disabled writes nothing",
			target: "/",
		},
		{
			name:   "get root",
			config: adapter.Config{Config: consoleLog},
			target: "/",
			want:   &accessEntry{Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "keeps query and double slash",
			config: adapter.Config{Config: consoleLog},
			target: "//missing?limit=10",
			want:   &accessEntry{Status: fiber.StatusNotFound, URI: "//missing?limit=10", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "chain error is rendered and logged",
			config: adapter.Config{Config: consoleLog},
			target: "/fail",
			want: &accessEntry{
				Status: fiber.StatusTeapot, URI: "/fail", Method: fiber.MethodGet, Host: "example.com", Error: "teapot",
			},
		},
		{
			name: "actor is logged",
			config: adapter.Config{
				Config: consoleLog,
				Actor:  func(c *fiber.Ctx) string { return c.Get("X-Test-Actor") },
			},
			target: "/",
			want:   &accessEntry{Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com", Actor: "alice"},
		},
		{
			name: "health check skipped",
			config: adapter.Config{
				Config: logger.Log{
					EnableAccessLogToConsole: true,
					DisableCheckAlive:        true,
					Console:                  logger.Console{Enabled: true},
				},
			},
			target: "/health-check",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := serve(t, tt.target, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			var got accessEntry
			require.NoError(t, json.Unmarshal([]byte(output), &got), output)

			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Host, got.Host)
			assert.Equal(t, tt.want.Actor, got.Actor)

			if tt.want.Error != "" {
				assert.Equal(t, tt.want.Error, got.Error)
			}
		})
	}
}

func serve(t *testing.T, target string, cfg adapter.Config) string {
	t.Helper()

	stdout := os.Stdout

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("hello test")
	})
	app.Get("/health-check", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/fail", func(_ *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, errors.New("teapot").Error())
	})

	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	req.Header.Set("X-Test-Actor", "alice")

	_, err = app.Test(req, -1)

	_ = w.Close()
	os.Stdout = stdout

	require.NoError(t, err)

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	return buf.String()
}
