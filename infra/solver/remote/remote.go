// Package remote submits models to an HTTP solve service speaking the LP
// interchange format and decodes the returned assignment.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/enersys/microplan/core/logger"
	"github.com/enersys/microplan/core/milp"
	"github.com/enersys/microplan/core/solver"
	"github.com/enersys/microplan/infra/solver/lpfile"
)

// Config defines the connection parameters for the remote solve service.
type Config struct {
	URL        string `json:"url"`
	TimeoutS   int    `json:"timeout_s"`
	MaxRetries int    `json:"max_retries"`
	BackoffMS  int    `json:"backoff_ms"`
}

// intTol snaps near-integral binary values in service replies.
const intTol = 1e-6

// Solver posts the model as an LP document to a solve endpoint.
type Solver struct {
	url        string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// response is the service reply. Values are keyed by LP column name.
type response struct {
	Status    string             `json:"status"`
	Objective float64            `json:"objective"`
	Values    map[string]float64 `json:"values"`
	Message   string             `json:"message"`
}

// New creates a remote Solver from cfg, applying defaults for missing
// retry and timeout settings.
func New(cfg Config, log logger.Logger) *Solver {
	if cfg.TimeoutS <= 0 {
		cfg.TimeoutS = 60
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMS <= 0 {
		cfg.BackoffMS = 100
	}
	return &Solver{
		url:        cfg.URL,
		client:     &http.Client{Timeout: time.Duration(cfg.TimeoutS) * time.Second},
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
}

// Name identifies the backend.
func (s *Solver) Name() string { return "remote" }

// Solve serializes m to LP text and posts it. Submission is retried with
// exponential backoff; retry exhaustion surfaces as ErrUnavailable.
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (*solver.Solution, error) {
	var buf bytes.Buffer
	if err := lpfile.Write(&buf, m); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	body := buf.Bytes()

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", solver.ErrTimeout, ctx.Err())
			case <-time.After(s.backoff * time.Duration(1<<(attempt-1))):
			}
		}
		resp, err := s.submit(ctx, body)
		if err == nil {
			return s.decode(resp, m)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", solver.ErrTimeout, ctx.Err())
		}
		lastErr = err
		if s.log != nil {
			s.log.Warnf("submit attempt %d failed: %v", attempt+1, err)
		}
	}
	return nil, fmt.Errorf("%w: %v", solver.ErrUnavailable, lastErr)
}

func (s *Solver) submit(ctx context.Context, body []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("solve service returned %d: %s", res.StatusCode, bytes.TrimSpace(msg))
	}

	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// decode maps the service reply onto the model's variable IDs. The
// objective is re-evaluated locally so the LP constant is accounted for.
func (s *Solver) decode(resp *response, m *milp.Model) (*solver.Solution, error) {
	switch resp.Status {
	case "optimal":
	case "infeasible":
		return nil, solver.ErrInfeasible
	case "unbounded":
		return nil, solver.ErrUnbounded
	case "limit":
		return nil, fmt.Errorf("%w: %s", solver.ErrTimeout, resp.Message)
	default:
		return nil, fmt.Errorf("solve service error: %s", resp.Message)
	}

	values := make([]float64, m.NumVars())
	for name, v := range resp.Values {
		id, ok := lpfile.ParseVarName(name)
		if !ok || id >= len(values) {
			return nil, fmt.Errorf("solve service returned unknown column %q", name)
		}
		values[id] = v
	}
	for _, id := range m.BinaryVars() {
		if d := values[id] - float64(int(values[id]+0.5)); d < intTol && d > -intTol {
			values[id] = float64(int(values[id] + 0.5))
		}
	}
	return &solver.Solution{
		Status:    solver.StatusOptimal,
		Objective: m.Objective().Eval(values),
		Values:    values,
	}, nil
}
