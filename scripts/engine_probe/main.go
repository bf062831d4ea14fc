package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type target struct {
	Query          string          `json:"query"`
	ComponentsInfo json.RawMessage `json:"components_info"`
	Critical       bool            `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target   target
	Status   int
	Verdict  json.RawMessage
	Error    error
	Duration time.Duration
}

// engine_probe fires a batch of verification queries directly at the
// model-checking engine and reports verdict and latency per query.
// Useful for checking an engine deployment before pointing the API at it.
func main() {
	var (
		engineBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&engineBase, "engine-base", "http://localhost:7125", "Engine base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "engine_probe", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
	)

	for _, t := range targets {
		res := probe(client, engineBase, t)
		if (res.Error != nil || res.Status != http.StatusOK) && t.Critical {
			breaking++
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func probe(client *http.Client, base string, tgt target) result {
	res := result{Target: tgt}

	payload, err := json.Marshal(map[string]interface{}{
		"query":           tgt.Query,
		"components_info": tgt.ComponentsInfo,
	})
	if err != nil {
		res.Error = fmt.Errorf("encode request: %w", err)
		return res
	}

	start := time.Now()
	resp, err := client.Post(base+"/query", "application/json", bytes.NewReader(payload))
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = fmt.Errorf("engine request failed: %w", err)
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read engine response: %w", err)
		return res
	}

	if resp.StatusCode == http.StatusOK {
		var decoded struct {
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(body, &decoded); err != nil {
			res.Error = fmt.Errorf("decode engine response: %w", err)
			return res
		}
		res.Verdict = decoded.Result
	}
	return res
}

func printReport(results []result) {
	fmt.Println("Engine Probe Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.Status != http.StatusOK {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s\n", status, res.Target.Query)
		fmt.Printf("  Status: %d (%s) | Critical: %t\n", res.Status, res.Duration, res.Target.Critical)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else if len(res.Verdict) > 0 {
			fmt.Printf("  Verdict: %s\n", res.Verdict)
		}
	}
}
