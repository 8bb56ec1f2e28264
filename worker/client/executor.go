// Package client talks to heft worker nodes: it submits tasks for remote
// execution and probes node liveness.
package client

//go:generate mockgen -source=executor.go -package=client -destination=executor_mock.go

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/scheduler/domain"
)

// 0 and 1 both mean a single attempt; the dispatcher never retries a task.
const DefaultHttpTries = 1

const ExecutePath = "/execute"
const HealthPath = "/health"

// Request is the body POSTed to a worker's execute endpoint.
type Request struct {
	TaskID int `json:"task_id"`
	Value  int `json:"value"`
}

// Response is what a worker returns for a successful execution.
type Response struct {
	Value         int     `json:"value"`
	Result        int64   `json:"result"`
	ExecutionTime float64 `json:"execution_time"` // seconds, measured on the worker
}

func (r *Response) Duration() time.Duration {
	return time.Duration(r.ExecutionTime * float64(time.Second))
}

// Executor submits one task to one processor and blocks until the worker
// answers or ctx is done. Any failure is a *domain.RemoteExecutionError.
type Executor interface {
	Execute(ctx context.Context, p domain.Processor, req Request) (*Response, error)
}

// Client is the subset of http.Client/pester.Client the executor needs.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

func MakePesterClient(tries int) *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = tries
	client.KeepLog = false
	client.LogHook = func(e pester.ErrEntry) {
		log.Errorf("Retrying after failed attempt: %+v", e)
	}
	return client
}

// NewHTTPExecutor returns an Executor POSTing JSON to http://host:port/execute.
func NewHTTPExecutor(client Client) Executor {
	if client == nil {
		client = MakePesterClient(DefaultHttpTries)
	}
	return &httpExecutor{client: client}
}

type httpExecutor struct {
	client Client
}

func (e *httpExecutor) Execute(ctx context.Context, p domain.Processor, req Request) (*Response, error) {
	fail := func(status int, err error) (*Response, error) {
		return nil, &domain.RemoteExecutionError{TaskID: req.TaskID, ProcessorID: p.ID, StatusCode: status, Err: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fail(0, errors.Wrap(err, "encoding request"))
	}
	uri := fmt.Sprintf("http://%s%s", p.Endpoint, ExecutePath)
	httpReq, err := http.NewRequest(http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return fail(0, errors.Wrap(err, "building request"))
	}
	httpReq = httpReq.WithContext(ctx)
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debugf("Executing task %d (value %d) at %s", req.TaskID, req.Value, uri)
	resp, err := e.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return fail(0, err)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return fail(0, errors.Wrap(err, "reading response"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errors.New(string(bytes.TrimSpace(data))))
	}

	out := &Response{}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, errors.Wrap(err, "decoding response"))
	}
	return out, nil
}
