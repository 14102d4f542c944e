// Command shadow_compare replays the grade read endpoints against the legacy
// Express service and this API, and reports payload differences. The Go side
// wraps payloads in {"data": ...}; only that field is compared.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

type target struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

var defaultTargets = []target{
	{Path: "/stats", Critical: true},
	{Path: "/stats/2", Critical: true},
	// The legacy learner route never answers with class averages, so a diff is expected.
	{Path: "/learner/2/avg-class", Critical: false},
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Diff           string
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
		tolerance   float64
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5050/grades", "Legacy grades router base URL")
	flag.StringVar(&targetsPath, "targets", "", "Optional JSON targets file; defaults to the grade read endpoints")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Per-request timeout")
	flag.Float64Var(&tolerance, "tolerance", 1e-9, "Absolute tolerance for numeric fields")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		comp := compareTarget(context.Background(), client, goBase, legacyBase, t, tolerance)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compareTarget(ctx context.Context, client *http.Client, goBase, legacyBase string, tgt target, tolerance float64) comparison {
	comp := comparison{Target: tgt}

	goStatus, goBody, goDur, err := fetch(ctx, client, goBase, tgt.Path)
	comp.DurationGo = goDur
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	legacyStatus, legacyBody, legacyDur, err := fetch(ctx, client, legacyBase, tgt.Path)
	comp.DurationLegacy = legacyDur
	if err != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = goStatus == legacyStatus

	goData, err := envelopeData(goBody)
	if err != nil {
		comp.Error = fmt.Errorf("decode go envelope: %w", err)
		return comp
	}
	comp.Diff = diffJSON(goData, legacyBody, tolerance)
	comp.BodyMatch = comp.Diff == ""
	return comp
}

func fetch(ctx context.Context, client *http.Client, base, path string) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// envelopeData extracts the data member of the Go response envelope; an error
// envelope yields its error member so status-only diffs still show a body.
func envelopeData(body []byte) ([]byte, error) {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if len(env.Data) > 0 {
		return env.Data, nil
	}
	return env.Error, nil
}

// diffJSON returns the first difference between a and b, or "" when they are
// equal as JSON values. Arrays are compared order-insensitively.
func diffJSON(a, b []byte, tolerance float64) string {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return "go body is not JSON"
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return "legacy body is not JSON"
	}
	return diffValue("$", av, bv, tolerance)
}

func diffValue(path string, a, b interface{}, tolerance float64) string {
	switch av := a.(type) {
	case map[string]interface{}:
		bm, ok := b.(map[string]interface{})
		if !ok {
			return path + ": object vs " + kind(b)
		}
		keys := make([]string, 0, len(av)+len(bm))
		for k := range av {
			keys = append(keys, k)
		}
		for k := range bm {
			if _, seen := av[k]; !seen {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if d := diffValue(path+"."+k, av[k], bm[k], tolerance); d != "" {
				return d
			}
		}
		return ""
	case []interface{}:
		bs, ok := b.([]interface{})
		if !ok {
			return path + ": array vs " + kind(b)
		}
		if len(av) != len(bs) {
			return fmt.Sprintf("%s: %d items vs %d", path, len(av), len(bs))
		}
		used := make([]bool, len(bs))
	outer:
		for i, item := range av {
			for j, candidate := range bs {
				if !used[j] && diffValue(path, item, candidate, tolerance) == "" {
					used[j] = true
					continue outer
				}
			}
			return fmt.Sprintf("%s[%d]: no matching legacy item", path, i)
		}
		return ""
	case float64:
		bf, ok := b.(float64)
		if !ok {
			return path + ": number vs " + kind(b)
		}
		if math.Abs(av-bf) > tolerance {
			return fmt.Sprintf("%s: %v vs %v", path, av, bf)
		}
		return ""
	default:
		if a != b {
			return fmt.Sprintf("%s: %v vs %v", path, a, b)
		}
		return ""
	}
}

func kind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] GET %s\n", status, res.Target.Path)
		fmt.Fprintf(w, "  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Fprintf(w, "  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		if res.Diff != "" {
			fmt.Fprintf(w, "  First diff: %s\n", res.Diff)
		}
	}
}
