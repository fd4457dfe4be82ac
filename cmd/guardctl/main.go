// guardctl gates deployments on reliability and cost signals. Every
// subcommand runs the same signal-to-decision pipeline; the decide exit
// code (ALLOW/WARN=0, DELAY=1, BLOCK=2) is the contract CI consumes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deployguard/deployguard/internal/config"
	"github.com/deployguard/deployguard/internal/explain"
	"github.com/deployguard/deployguard/internal/policy"
	"github.com/deployguard/deployguard/internal/report"
)

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "decide":
		return handleDecide(args[2:], stdout, stderr)
	case "slo":
		return handleSLO(args[2:], stdout, stderr)
	case "cost":
		return handleCost(args[2:], stdout, stderr)
	case "explain":
		return handleExplain(args[2:], stdout, stderr)
	case "audit":
		return handleAudit(args[2:], stdout, stderr)
	case "validate":
		return handleValidate(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleDecide(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DEPLOYGUARD_CONFIG"), "path to deployguard config file")
	jsonOut := fs.Bool("json", false, "also print the structured decision as JSON")
	noAudit := fs.Bool("no-audit", false, "skip writing an audit record")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := newPipeline(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.close()

	result, err := p.engine.Evaluate()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	fmt.Fprint(stdout, report.Decision(result))

	if *jsonOut {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 2
		}
		fmt.Fprintln(stdout, string(payload))
	}

	// Audit failures are a separate failure domain: report them, keep
	// the decision and its exit code.
	if !*noAudit {
		if err := p.sink.Write(result); err != nil {
			p.logger.Warnw("failed to write audit record", "error", err)
		}
	}

	return result.ExitCode()
}

func handleSLO(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("slo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DEPLOYGUARD_CONFIG"), "path to deployguard config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := newPipeline(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.close()

	result, err := p.reliability.Evaluate()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	fmt.Fprint(stdout, report.SLO(result))

	if !result.AvailabilityCompliant || !result.LatencyCompliant {
		return 2
	}
	if result.ErrorBudgetPct < 10 {
		return 1
	}
	return 0
}

func handleCost(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("cost", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DEPLOYGUARD_CONFIG"), "path to deployguard config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := newPipeline(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.close()

	result, err := p.cost.Evaluate()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	fmt.Fprint(stdout, report.Cost(result))

	if result.WoWChangePct >= p.cfg.Cost.BlockPct {
		return 1
	}
	return 0
}

func handleExplain(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DEPLOYGUARD_CONFIG"), "path to deployguard config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := newPipeline(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.close()

	result, err := p.engine.Evaluate()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	explainer := explain.New(p.cfg.Explainer.Backend)
	narrative, err := explainer.Explain(result)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	fmt.Fprintln(stdout, narrative)
	return 0
}

func handleAudit(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DEPLOYGUARD_CONFIG"), "path to deployguard config file")
	date := fs.String("date", time.Now().UTC().Format("2006-01-02"), "day to read records for (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		fmt.Fprintln(stderr, "Error: invalid --date:", err)
		return 2
	}

	p, err := newPipeline(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	defer p.close()

	records, err := p.reader.ReadDay(day)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	if len(records) == 0 {
		fmt.Fprintf(stdout, "No decisions recorded on %s\n", *date)
		return 0
	}

	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		fmt.Fprintln(stdout, string(line))
	}
	return 0
}

func handleValidate(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("DEPLOYGUARD_CONFIG"), "path to deployguard config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	validator, err := policy.NewValidator(cfg.Paths.PolicySchema)
	if err != nil {
		fmt.Fprintln(stderr, "Error: failed to initialize validator:", err)
		return 1
	}

	errors := validator.ValidateFile(cfg.Paths.Policies)

	// The SLO config loader performs its own structural checks.
	if _, err := loadSLOConfig(cfg); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	if len(errors) == 0 {
		fmt.Fprintln(stdout, "All configuration files are valid")
		return 0
	}

	fmt.Fprintf(stderr, "Validation failed with %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Fprintln(stderr, "  "+e.Error())
	}
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: guardctl <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  decide     Evaluate the deployment gate; exit 0=allow/warn, 1=delay, 2=block")
	fmt.Fprintln(w, "  slo        Evaluate reliability signals only")
	fmt.Fprintln(w, "  cost       Evaluate cost signals only")
	fmt.Fprintln(w, "  explain    Evaluate and print a narrative explanation")
	fmt.Fprintln(w, "  audit      Print recorded decisions for a day")
	fmt.Fprintln(w, "  validate   Validate policy and SLO configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  --config <path>   Config file (or DEPLOYGUARD_CONFIG)")
}
