package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/output"
	"github.com/providerkit/providerkit/internal/server/handlers"
)

const cooldownsAPIPath = "/v1/cooldowns"

var (
	cooldownsServer  string
	cooldownsTimeout time.Duration
	cooldownsPrefix  string
	cooldownsAll     bool
	cooldownsYes     bool
	cooldownsDryRun  bool
)

var cooldownsCmd = &cobra.Command{
	Use:   "cooldowns",
	Short: "Inspect and reset model cooldowns on a running server",
}

var cooldownsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models currently in a rate limit cooldown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCooldownClient()
		if err != nil {
			return err
		}
		list, err := client.list(cmd.Context())
		if err != nil {
			return err
		}
		return renderTo(cmd, list.FilterPrefix(strings.TrimSpace(cooldownsPrefix)))
	},
}

var cooldownsRecordCmd = &cobra.Command{
	Use:   "record <model>",
	Short: "Mark a model as rate limited now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCooldownClient()
		if err != nil {
			return err
		}
		entry, err := client.record(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderTo(cmd, entry)
	},
}

var cooldownsResetCmd = &cobra.Command{
	Use:   "reset [model...]",
	Short: "Clear the cooldown of one or more models",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cooldownsAll && len(args) > 0 {
			return errors.New("--all cannot be combined with model arguments")
		}
		if !cooldownsAll && len(args) == 0 {
			return errors.New("provide at least one model or --all")
		}
		if cooldownsAll && !cooldownsYes && !cooldownsDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		client, err := newCooldownClient()
		if err != nil {
			return err
		}

		models := args
		if cooldownsAll {
			list, err := client.list(cmd.Context())
			if err != nil {
				return err
			}
			list = list.FilterPrefix(strings.TrimSpace(cooldownsPrefix))
			models = make([]string, 0, len(list.Entries))
			for _, e := range list.Entries {
				models = append(models, e.Model)
			}
		}

		w := cmd.OutOrStdout()
		if cooldownsDryRun {
			_, err := fmt.Fprintf(w, "would reset %d model(s)\n", len(models))
			return err
		}

		cleared := 0
		for _, model := range models {
			ok, err := client.clear(cmd.Context(), model)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintf(w, "%s: not tracked\n", model)
				continue
			}
			cleared++
		}
		_, err = fmt.Fprintf(w, "reset %d of %d model(s)\n", cleared, len(models))
		return err
	},
}

func init() {
	cooldownsCmd.PersistentFlags().StringVar(&cooldownsServer, "server", "", "Base URL of a running providerkit server (default from server.host/server.port)")
	cooldownsCmd.PersistentFlags().DurationVar(&cooldownsTimeout, "timeout", 10*time.Second, "Request timeout")
	cooldownsListCmd.Flags().StringVar(&cooldownsPrefix, "prefix", "", "Only list models with this prefix")
	cooldownsResetCmd.Flags().StringVar(&cooldownsPrefix, "prefix", "", "With --all, only reset models with this prefix")
	cooldownsResetCmd.Flags().BoolVar(&cooldownsAll, "all", false, "Reset every model currently cooling down")
	cooldownsResetCmd.Flags().BoolVar(&cooldownsYes, "yes", false, "Confirm --all")
	cooldownsResetCmd.Flags().BoolVar(&cooldownsDryRun, "dry-run", false, "Report what would be reset")
	addOutputFlags(cooldownsListCmd)
	addOutputFlags(cooldownsRecordCmd)

	cooldownsCmd.AddCommand(cooldownsListCmd, cooldownsRecordCmd, cooldownsResetCmd)
	rootCmd.AddCommand(cooldownsCmd)
}

type cooldownClient struct {
	base   string
	client *http.Client
}

func newCooldownClient() (*cooldownClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cooldownsServer), "/")
	if base == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "127.0.0.1"
		}
		base = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
	}
	return &cooldownClient{base: base, client: &http.Client{Timeout: cooldownsTimeout}}, nil
}

func (c *cooldownClient) modelURL(model string) string {
	return c.base + cooldownsAPIPath + "/" + url.PathEscape(model)
}

func (c *cooldownClient) do(ctx context.Context, method, target string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact server at %s: %w", c.base, err)
	}
	return resp, nil
}

func (c *cooldownClient) list(ctx context.Context) (output.CooldownList, error) {
	resp, err := c.do(ctx, http.MethodGet, c.base+cooldownsAPIPath)
	if err != nil {
		return output.CooldownList{}, err
	}
	defer resp.Body.Close() // nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusOK {
		return output.CooldownList{}, responseError(resp)
	}
	var payload handlers.CooldownListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return output.CooldownList{}, fmt.Errorf("decode cooldowns: %w", err)
	}

	list := output.CooldownList{CooldownSeconds: payload.CooldownSeconds, Entries: make([]output.Cooldown, 0, len(payload.Entries))}
	for _, e := range payload.Entries {
		list.Entries = append(list.Entries, toCooldown(e))
	}
	return list, nil
}

func (c *cooldownClient) record(ctx context.Context, model string) (output.CooldownList, error) {
	resp, err := c.do(ctx, http.MethodPost, c.modelURL(model))
	if err != nil {
		return output.CooldownList{}, err
	}
	defer resp.Body.Close() // nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusAccepted {
		return output.CooldownList{}, responseError(resp)
	}
	var status handlers.CooldownStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return output.CooldownList{}, fmt.Errorf("decode cooldown: %w", err)
	}
	return output.CooldownList{CooldownSeconds: status.CooldownSeconds, Entries: []output.Cooldown{toCooldown(status)}}, nil
}

// clear reports false when the server has no entry for model.
func (c *cooldownClient) clear(ctx context.Context, model string) (bool, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.modelURL(model))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() // nolint:errcheck // read-only response

	switch resp.StatusCode {
	case http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError(resp)
	}
}

func toCooldown(s handlers.CooldownStatus) output.Cooldown {
	return output.Cooldown{Model: s.Model, RateLimited: s.RateLimited, RemainingSeconds: s.RemainingSeconds}
}

// responseError turns an error envelope from the server into a Go error.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope apperrors.HTTPErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		return fmt.Errorf("server returned %d %s: %s", resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
