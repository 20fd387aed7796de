package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the kind-specific configuration of a node. The concrete
// variants are InputConfig, TaskConfig, ToolConfig, RouterConfig and
// OutputConfig.
type Config interface {
	Kind() Kind
	Meta() Base
}

// Base carries the fields shared by every configuration variant.
type Base struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

func (b Base) Meta() Base { return b }

type (
	InputType  string
	TaskType   string
	ToolType   string
	RouterType string
	OutputType string
	Format     string
)

const (
	InputText InputType = "text"
	InputFile InputType = "file"
	InputAPI  InputType = "api"

	TaskSummarize TaskType = "summarize"
	TaskAnalyze   TaskType = "analyze"
	TaskTransform TaskType = "transform"
	TaskCallAPI   TaskType = "call-api"

	ToolWebSearch     ToolType = "web-search"
	ToolCodeExecution ToolType = "code-execution"
	ToolDatabase      ToolType = "database"
	ToolFileSystem    ToolType = "file-system"
	ToolCustom        ToolType = "custom"

	RouterCondition RouterType = "condition"
	RouterSwitch    RouterType = "switch"
	RouterParallel  RouterType = "parallel"

	OutputDisplay      OutputType = "display"
	OutputNotification OutputType = "notification"
	OutputDownload     OutputType = "download"
	OutputAPI          OutputType = "api"

	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

type InputConfig struct {
	Base
	InputType    InputType `json:"inputType,omitempty" validate:"omitempty,oneof=text file api"`
	DefaultValue string    `json:"defaultValue,omitempty"`
}

type TaskConfig struct {
	Base
	TaskType    TaskType `json:"taskType,omitempty" validate:"omitempty,oneof=summarize analyze transform call-api"`
	Prompt      string   `json:"prompt,omitempty"`
	APIEndpoint string   `json:"apiEndpoint,omitempty"`
	APIKey      string   `json:"apiKey,omitempty"`
}

// ToolConfig holds ToolConfig and ToolParameters as opaque JSON strings.
type ToolConfig struct {
	Base
	ToolType       ToolType `json:"toolType,omitempty" validate:"omitempty,oneof=web-search code-execution database file-system custom"`
	ToolConfig     string   `json:"toolConfig,omitempty"`
	ToolParameters string   `json:"toolParameters,omitempty"`
}

type RouterConfig struct {
	Base
	RouterType   RouterType `json:"routerType,omitempty" validate:"omitempty,oneof=condition switch parallel"`
	Conditions   string     `json:"conditions,omitempty"`
	DefaultRoute string     `json:"defaultRoute,omitempty"`
}

type OutputConfig struct {
	Base
	OutputType  OutputType `json:"outputType,omitempty" validate:"omitempty,oneof=display notification download api"`
	Format      Format     `json:"format,omitempty" validate:"omitempty,oneof=text json csv"`
	Destination string     `json:"destination,omitempty"`
}

func (InputConfig) Kind() Kind  { return KindInput }
func (TaskConfig) Kind() Kind   { return KindTask }
func (ToolConfig) Kind() Kind   { return KindTool }
func (RouterConfig) Kind() Kind { return KindRouter }
func (OutputConfig) Kind() Kind { return KindOutput }

// DefaultLabel is the label given to a freshly added node, e.g. "New Task".
func DefaultLabel(kind Kind) string {
	s := string(kind)
	if s == "" {
		return "New Node"
	}
	return "New " + strings.ToUpper(s[:1]) + s[1:]
}

// DefaultConfig returns the configuration a newly added node of kind starts
// with. It returns nil for an unknown kind.
func DefaultConfig(kind Kind) Config {
	base := Base{Name: DefaultLabel(kind)}
	switch kind {
	case KindInput:
		return InputConfig{Base: base, InputType: InputText}
	case KindTask:
		return TaskConfig{Base: base, TaskType: TaskSummarize, Prompt: "Summarize the input text"}
	case KindTool:
		return ToolConfig{Base: base, ToolType: ToolCustom, ToolConfig: "{}", ToolParameters: "{}"}
	case KindRouter:
		return RouterConfig{Base: base, RouterType: RouterCondition, Conditions: "{}"}
	case KindOutput:
		return OutputConfig{Base: base, OutputType: OutputDisplay, Format: FormatText}
	}
	return nil
}

// ValidateConfig checks required fields and enum membership.
func ValidateConfig(c Config) error {
	if c == nil {
		return fmt.Errorf("%w: missing configuration", ErrInvalidConfig)
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MergeConfig applies a partial JSON object on top of c. Keys missing from
// patch keep their current value; keys that belong to another kind are
// ignored. The result is validated.
func MergeConfig(c Config, patch json.RawMessage) (Config, error) {
	var (
		merged Config
		err    error
	)
	switch v := c.(type) {
	case InputConfig:
		merged, err = merge(v, patch)
	case TaskConfig:
		merged, err = merge(v, patch)
	case ToolConfig:
		merged, err = merge(v, patch)
	case RouterConfig:
		merged, err = merge(v, patch)
	case OutputConfig:
		merged, err = merge(v, patch)
	default:
		return nil, fmt.Errorf("%w: unsupported configuration %T", ErrInvalidConfig, c)
	}
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func merge[T Config](v T, patch json.RawMessage) (Config, error) {
	if err := json.Unmarshal(patch, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return v, nil
}

func decodeConfig(kind Kind, raw json.RawMessage) (Config, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	switch kind {
	case KindInput:
		return decode[InputConfig](raw)
	case KindTask:
		return decode[TaskConfig](raw)
	case KindTool:
		return decode[ToolConfig](raw)
	case KindRouter:
		return decode[RouterConfig](raw)
	case KindOutput:
		return decode[OutputConfig](raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
}

func decode[T Config](raw json.RawMessage) (Config, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
