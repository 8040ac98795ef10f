// easelctl habla con la superficie interna del service: registro de
// conexiones, stats y push manual. Pensado para operar y debuggear, no
// para usuarios finales.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	// Con el guard deshabilitado en el server (key vacía) el header de más
	// no molesta.
	req.Header.Set("X-Internal-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("EASEL_INTERNAL_URL", "http://localhost:8081")
		apiKey  = envOr("EASEL_INTERNAL_KEY", "")
		out     = envOr("EASEL_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "easelctl",
		Short: "CLI de operación para easel (superficie interna)",
	}
	root.PersistentFlags().StringVar(&baseURL, "internal-url", baseURL, "URL base de la superficie interna (env EASEL_INTERNAL_URL)")
	root.PersistentFlags().StringVar(&apiKey, "internal-key", apiKey, "API key interna (env EASEL_INTERNAL_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL = baseURL
		cl.APIKey = apiKey
		cl.OutFormat = out
	}

	connsCmd := &cobra.Command{
		Use:   "conns",
		Short: "Registro de conexiones websocket",
	}

	connsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Lista todas las conexiones registradas",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/internal/connections", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	})

	connsCmd.AddCommand(&cobra.Command{
		Use:   "evict <connection_id>",
		Short: "Da de baja una conexión del registro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("DELETE", "/internal/connections/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
			fmt.Println("ok")
			return nil
		},
	})

	pushCmd := &cobra.Command{
		Use:   "push <connection_id> <json>",
		Short: "Empuja un payload crudo a una conexión local del nodo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/internal/push/connections/"+args[0], []byte(args[1]))
			if err != nil {
				return err
			}
			switch {
			case status == http.StatusNoContent:
				fmt.Println("entregado")
				return nil
			case status == http.StatusGone:
				return fmt.Errorf("la conexión ya no está en este nodo")
			default:
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Stats del nodo: conexiones locales y cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/internal/stats", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Readiness del nodo (storage y cache)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/readyz", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status != http.StatusOK {
				return fmt.Errorf("no listo: status=%d", status)
			}
			return nil
		},
	}

	root.AddCommand(connsCmd, pushCmd, statsCmd, healthCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
