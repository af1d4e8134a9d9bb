// Command otpgate-cli es un cliente de línea de comandos contra un server
// otpgate corriendo: pedir tokens, validarlos y chequear disponibilidad.
package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL string
	Client  string
	Secret  string
	HTTP    *http.Client
}

func (c *client) post(path string, form url.Values) (int, []byte, error) {
	form.Set("client", c.Client)
	if c.Secret != "" {
		form.Set("clientpassword", c.Secret)
	}
	u := strings.TrimRight(c.BaseURL, "/") + path
	resp, err := c.HTTP.PostForm(u, form)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func main() {
	var (
		baseURL = envOr("OTPGATE_URL", "http://localhost:8080")
		name    = envOr("OTPGATE_CLIENT", "")
		secret  = envOr("OTPGATE_CLIENT_SECRET", "")
	)

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "otpgate-cli",
		Short: "Cliente CLI para otpgate",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.Client = name
			cl.Secret = secret
			if name == "" && cmd.Name() != "monitor" {
				return fmt.Errorf("falta el client (flag --client o env OTPGATE_CLIENT)")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del server (env OTPGATE_URL)")
	root.PersistentFlags().StringVar(&name, "client", name, "nombre del client/tenant (env OTPGATE_CLIENT)")
	root.PersistentFlags().StringVar(&secret, "secret", secret, "password del client (env OTPGATE_CLIENT_SECRET)")

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Pedir la emisión de un token",
	}

	sendEmailCmd := &cobra.Command{
		Use:   "email <address>",
		Short: "Emitir un token y mandarlo por email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.post("/otp/email", url.Values{"address": {args[0]}})
			return report(status, body, err)
		},
	}

	sendTextCmd := &cobra.Command{
		Use:   "text <number>",
		Short: "Emitir un token y mandarlo por SMS (gateway email)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.post("/otp/text", url.Values{"number": {args[0]}})
			return report(status, body, err)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <uid> <token>",
		Short: "Validar (y consumir) un token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.post("/otp/validate", url.Values{
				"uid":   {args[0]},
				"token": {args[1]},
			})
			return report(status, body, err)
		},
	}

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Chequear disponibilidad del server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := cl.HTTP.Get(strings.TrimRight(cl.BaseURL, "/") + "/monitor")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			return report(resp.StatusCode, b, nil)
		},
	}

	sendCmd.AddCommand(sendEmailCmd, sendTextCmd)
	root.AddCommand(sendCmd, validateCmd, monitorCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func report(status int, body []byte, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(string(body)))
	if status/100 != 2 {
		return fmt.Errorf("status=%d", status)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
