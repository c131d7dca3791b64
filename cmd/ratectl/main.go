// ratectl is a command line client for the ratepilot API.
//
// Usage:
//
//	ratectl quote --property prop-1 --date 2026-07-04
//	ratectl optimize --property prop-1 --start 2026-07-01 --end 2026-07-31
//	ratectl sync --property prop-1 --platform airbnb --platform vrbo
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var version = "dev"

const defaultTimeout = 10 * time.Second

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "ratectl",
		Usage:   "Pricing, calendar and availability control for ratepilot",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "ratepilot API base URL",
				EnvVars: []string{"RATEPILOT_URL"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   defaultTimeout,
				Usage:   "Request timeout",
				EnvVars: []string{"RATEPILOT_TIMEOUT"},
			},
		},
		Commands: []*cli.Command{
			quoteCommand(),
			strategyCommand(),
			optimizeCommand(),
			calendarCommand(),
			syncCommand(),
			rulesCommand(),
			checkCommand(),
			insightsCommand(),
		},
	}
}

func propertyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "property",
		Aliases:  []string{"p"},
		Usage:    "Property ID",
		Required: true,
	}
}

func idempotencyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "idempotency-key",
		Usage: "Idempotency key (random when empty)",
	}
}

func client(c *cli.Context) *apiClient {
	return newAPIClient(c.String("url"), c.Duration("timeout"))
}

func idempotencyKey(c *cli.Context) string {
	if key := c.String("idempotency-key"); key != "" {
		return key
	}
	return uuid.NewString()
}

func render(c *cli.Context, data []byte, err error) error {
	if err != nil {
		return err
	}
	return prettyJSON(c.App.Writer, data)
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Quote a nightly price",
		Flags: []cli.Flag{
			propertyFlag(),
			&cli.StringFlag{Name: "date", Usage: "Stay date (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "aggressiveness", Usage: "conservative, moderate or aggressive"},
			&cli.Int64Flag{Name: "min", Usage: "Minimum price"},
			&cli.Int64Flag{Name: "max", Usage: "Maximum price"},
			&cli.Int64Flag{Name: "base", Usage: "Base price override"},
			&cli.Float64Flag{Name: "multiplier", Usage: "Custom multiplier"},
		},
		Action: func(c *cli.Context) error {
			q := url.Values{"date": {c.String("date")}}
			if v := c.String("aggressiveness"); v != "" {
				q.Set("aggressiveness", v)
			}
			for _, name := range []string{"min", "max", "base"} {
				if c.IsSet(name) {
					q.Set(name, strconv.FormatInt(c.Int64(name), 10))
				}
			}
			if c.IsSet("multiplier") {
				q.Set("multiplier", strconv.FormatFloat(c.Float64("multiplier"), 'f', -1, 64))
			}
			api := client(c)
			data, err := api.do(c.Context, http.MethodGet, api.propertyPath(c.String("property"), "/quote"), q, nil, "")
			return render(c, data, err)
		},
	}
}

func strategyCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategy",
		Usage: "Set the pricing strategy and publish rates",
		Flags: []cli.Flag{
			propertyFlag(),
			idempotencyFlag(),
			&cli.StringFlag{Name: "type", Value: "moderate", Usage: "conservative, moderate, aggressive or custom"},
			&cli.Float64Flag{Name: "multiplier", Usage: "Multiplier for custom strategies"},
			&cli.Int64Flag{Name: "min", Usage: "Minimum price"},
			&cli.Int64Flag{Name: "max", Usage: "Maximum price"},
			&cli.IntFlag{Name: "horizon", Value: 30, Usage: "Days to price ahead"},
			&cli.StringFlag{Name: "schedule", Usage: "daily, weekly or monthly"},
			&cli.StringSliceFlag{Name: "platform", Usage: "Target platform (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			body := map[string]any{
				"type":             c.String("type"),
				"multiplier":       c.Float64("multiplier"),
				"min_price":        c.Int64("min"),
				"max_price":        c.Int64("max"),
				"horizon_days":     c.Int("horizon"),
				"schedule":         c.String("schedule"),
				"target_platforms": c.StringSlice("platform"),
			}
			api := client(c)
			data, err := api.do(c.Context, http.MethodPut, api.propertyPath(c.String("property"), "/pricing-strategy"), nil, body, idempotencyKey(c))
			return render(c, data, err)
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Run a revenue sweep over a period",
		Flags: []cli.Flag{
			propertyFlag(),
			idempotencyFlag(),
			&cli.StringFlag{Name: "start", Usage: "First day (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "end", Usage: "Last day (YYYY-MM-DD)", Required: true},
			&cli.Float64Flag{Name: "target-occupancy", Usage: "Target occupancy (0-1)"},
			&cli.Float64Flag{Name: "target-revenue", Usage: "Target revenue"},
			&cli.BoolFlag{Name: "prioritize-occupancy", Usage: "Prefer occupancy over rate"},
		},
		Action: func(c *cli.Context) error {
			body := map[string]any{
				"start": c.String("start"),
				"end":   c.String("end"),
				"goals": map[string]any{
					"target_occupancy":     c.Float64("target-occupancy"),
					"target_revenue":       c.Float64("target-revenue"),
					"prioritize_occupancy": c.Bool("prioritize-occupancy"),
				},
			}
			api := client(c)
			data, err := api.do(c.Context, http.MethodPost, api.propertyPath(c.String("property"), "/optimize"), nil, body, idempotencyKey(c))
			return render(c, data, err)
		},
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Show a stored calendar",
		Flags: []cli.Flag{
			propertyFlag(),
			&cli.StringFlag{Name: "platform", Usage: "Platform (master when empty)"},
		},
		Action: func(c *cli.Context) error {
			q := url.Values{}
			if v := c.String("platform"); v != "" {
				q.Set("platform", v)
			}
			api := client(c)
			data, err := api.do(c.Context, http.MethodGet, api.propertyPath(c.String("property"), "/calendar"), q, nil, "")
			return render(c, data, err)
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Push the master calendar to platforms",
		Flags: []cli.Flag{
			propertyFlag(),
			idempotencyFlag(),
			&cli.StringSliceFlag{Name: "platform", Usage: "Platform (repeatable, all connected when empty)"},
		},
		Action: func(c *cli.Context) error {
			body := map[string]any{"platforms": c.StringSlice("platform")}
			api := client(c)
			data, err := api.do(c.Context, http.MethodPost, api.propertyPath(c.String("property"), "/calendar/sync"), nil, body, idempotencyKey(c))
			return render(c, data, err)
		},
	}
}

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Replace availability rules from a JSON file",
		Flags: []cli.Flag{
			propertyFlag(),
			idempotencyFlag(),
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Rules JSON file (- for stdin)", Required: true},
		},
		Action: func(c *cli.Context) error {
			body, err := readJSONFile(c.String("file"))
			if err != nil {
				return err
			}
			api := client(c)
			data, err := api.do(c.Context, http.MethodPut, api.propertyPath(c.String("property"), "/availability-rules"), nil, body, idempotencyKey(c))
			return render(c, data, err)
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check a stay against the active rules",
		Flags: []cli.Flag{
			propertyFlag(),
			&cli.StringFlag{Name: "check-in", Usage: "Check-in day (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "check-out", Usage: "Check-out day (YYYY-MM-DD)", Required: true},
		},
		Action: func(c *cli.Context) error {
			q := url.Values{"check_in": {c.String("check-in")}, "check_out": {c.String("check-out")}}
			api := client(c)
			data, err := api.do(c.Context, http.MethodGet, api.propertyPath(c.String("property"), "/availability/check"), q, nil, "")
			return render(c, data, err)
		},
	}
}

func insightsCommand() *cli.Command {
	return &cli.Command{
		Name:  "insights",
		Usage: "Show market insights",
		Flags: []cli.Flag{
			propertyFlag(),
			&cli.StringFlag{Name: "timeframe", Value: "month", Usage: "week, month or quarter"},
		},
		Action: func(c *cli.Context) error {
			q := url.Values{"timeframe": {c.String("timeframe")}}
			api := client(c)
			data, err := api.do(c.Context, http.MethodGet, api.propertyPath(c.String("property"), "/insights"), q, nil, "")
			return render(c, data, err)
		},
	}
}

func readJSONFile(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
