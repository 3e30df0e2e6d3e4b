package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

const snippetLength = 100

type smokeOptions struct {
	host    string
	port    int
	timeout time.Duration
}

func newSmokeCommand() *cobra.Command {
	opts := &smokeOptions{}

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run end-to-end checks against a running service",
		Long: `Calls GET /, POST /query and POST /rag on a running service and reports
which checks passed. Stops early if the health check fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmoke(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "localhost", "service host")
	cmd.Flags().IntVar(&opts.port, "port", 8000, "service port")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "per-request timeout")
	return cmd
}

type smokeCheck struct {
	name string
	run  func(c *resty.Client) (string, error)
}

func runSmoke(out io.Writer, opts *smokeOptions) error {
	baseURL := fmt.Sprintf("http://%s:%d", opts.host, opts.port)
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.timeout).
		SetHeader("Content-Type", "application/json")

	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Fprintf(out, "Testing RAG service at %s\n", baseURL)

	checks := []smokeCheck{
		{"health check", checkHealth},
		{"direct query", checkDirectQuery},
		{"rag query", checkRAGQuery},
	}

	failed := 0
	for i, check := range checks {
		summary, err := check.run(client)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", fail("FAIL"), check.name, err)
			if i == 0 {
				fmt.Fprintln(out, "Health check failed, aborting")
				return fmt.Errorf("health check failed: %w", err)
			}
			continue
		}
		fmt.Fprintf(out, "%s %s\n", pass("PASS"), check.name)
		if summary != "" {
			fmt.Fprintf(out, "     %s\n", summary)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Fprintln(out, "All checks passed")
	return nil
}

func checkHealth(c *resty.Client) (string, error) {
	var body map[string]string
	resp, err := c.R().SetResult(&body).Get("/")
	if err := expectOK(resp, err); err != nil {
		return "", err
	}
	if body["status"] != "healthy" {
		return "", fmt.Errorf("unexpected status %q", body["status"])
	}
	return fmt.Sprintf("response: %s", resp.String()), nil
}

type completionBody struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (b completionBody) snippet() string {
	if len(b.Choices) == 0 {
		return ""
	}
	text := []rune(b.Choices[0].Text)
	if len(text) > snippetLength {
		return string(text[:snippetLength]) + "..."
	}
	return string(text)
}

func checkDirectQuery(c *resty.Client) (string, error) {
	payload := map[string]interface{}{
		"query":       "What is artificial intelligence?",
		"max_tokens":  100,
		"temperature": 0.7,
	}

	var body completionBody
	resp, err := c.R().SetBody(payload).SetResult(&body).Post("/query")
	if err := expectOK(resp, err); err != nil {
		return "", err
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("response has no choices: %s", resp.String())
	}
	return fmt.Sprintf("answer: %s", body.snippet()), nil
}

func checkRAGQuery(c *resty.Client) (string, error) {
	payload := map[string]interface{}{
		"query":       "Who is Einstein?",
		"max_tokens":  100,
		"temperature": 0.7,
		"top_k":       2,
	}

	var body struct {
		LLMResponse json.RawMessage `json:"llm_response"`
		Contexts    []string        `json:"contexts"`
	}
	resp, err := c.R().SetBody(payload).SetResult(&body).Post("/rag")
	if err := expectOK(resp, err); err != nil {
		return "", err
	}

	var completion completionBody
	if err := json.Unmarshal(body.LLMResponse, &completion); err != nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm_response has no choices: %s", resp.String())
	}
	return fmt.Sprintf("contexts: %d, answer: %s", len(body.Contexts), completion.snippet()), nil
}

func expectOK(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
