// pkg/registry/schema.go
package registry

// ToolManifest lists every tool a worker process exposes, in the form the
// process modeler and other hosts consume.
type ToolManifest struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Tools       []ToolEntry `json:"tools"`
}

type ToolEntry struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	TaskType    string                 `json:"taskType"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	ErrorCodes  []string               `json:"errorCodes"`
	Timeout     string                 `json:"timeout"`
	Retries     int                    `json:"retries"`
	Tags        []string               `json:"tags,omitempty"`
}
