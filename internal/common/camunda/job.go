package camunda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"weather-workers/internal/common/errors"
)

// JobVariables decodes the job's variable document. Numbers stay json.Number
// so integer parameters are validated exactly.
func JobVariables(job entities.Job) (map[string]interface{}, error) {
	raw := job.GetVariables()
	if raw == "" {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	vars := map[string]interface{}{}
	if err := dec.Decode(&vars); err != nil {
		return nil, errors.NewInputParsingFailedError(fmt.Errorf("job %d variables: %w", job.GetKey(), err))
	}
	return vars, nil
}

// CompleteJob completes job with output marshalled as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete job command: %w", err)
	}
	return nil
}
