package flow

import "time"

// DemoWorkflow returns the "Content Analyzer Demo": a text input analysed by
// a task, enriched by a web search tool and routed by sentiment to one of
// three outputs.
func DemoWorkflow(id string, now time.Time) Workflow {
	output := func(id, name, description string, x float64) Node {
		return Node{
			ID:       id,
			Kind:     KindOutput,
			Position: Position{X: x, Y: 650},
			Label:    name,
			Config: OutputConfig{
				Base:       Base{Name: name, Description: description},
				OutputType: OutputDisplay,
				Format:     FormatText,
			},
		}
	}

	nodes := []Node{
		{
			ID:       "input-1",
			Kind:     KindInput,
			Position: Position{X: 250, Y: 50},
			Label:    "User Input",
			Config: InputConfig{
				Base:         Base{Name: "User Input", Description: "Text input from the user"},
				InputType:    InputText,
				DefaultValue: "I really enjoyed learning about AI and its applications in workflow automation.",
			},
		},
		{
			ID:       "task-1",
			Kind:     KindTask,
			Position: Position{X: 250, Y: 200},
			Label:    "Content Analysis",
			Config: TaskConfig{
				Base:     Base{Name: "Content Analysis", Description: "Analyze the text content"},
				TaskType: TaskAnalyze,
				Prompt: "Analyze the following text and determine: 1) The main topic, " +
					"2) The sentiment (positive, negative, or neutral), and 3) Key entities mentioned. " +
					"Format the response as JSON.",
			},
		},
		{
			ID:       "tool-1",
			Kind:     KindTool,
			Position: Position{X: 250, Y: 350},
			Label:    "Related Content Search",
			Config: ToolConfig{
				Base:           Base{Name: "Related Content Search", Description: "Find related content on the web"},
				ToolType:       ToolWebSearch,
				ToolConfig:     `{"max_results": 3, "search_type": "news"}`,
				ToolParameters: `{"query": "{{Content Analysis.output.main_topic}} latest developments"}`,
			},
		},
		{
			ID:       "router-1",
			Kind:     KindRouter,
			Position: Position{X: 250, Y: 500},
			Label:    "Sentiment Router",
			Config: RouterConfig{
				Base:       Base{Name: "Sentiment Router", Description: "Route based on sentiment analysis"},
				RouterType: RouterCondition,
				Conditions: `{"positive": "{{Content Analysis.output.sentiment}} === 'positive'", ` +
					`"negative": "{{Content Analysis.output.sentiment}} === 'negative'", ` +
					`"neutral": "{{Content Analysis.output.sentiment}} === 'neutral'"}`,
				DefaultRoute: "neutral",
			},
		},
		output("output-1", "Positive Response", "Output for positive sentiment", 100),
		output("output-2", "Neutral Response", "Output for neutral sentiment", 250),
		output("output-3", "Negative Response", "Output for negative sentiment", 400),
	}

	edges := []Edge{
		{ID: "edge-input-task", Source: "input-1", Target: "task-1", Type: "default"},
		{ID: "edge-task-tool", Source: "task-1", Target: "tool-1", Type: "default"},
		{ID: "edge-tool-router", Source: "tool-1", Target: "router-1", Type: "default"},
		{ID: "edge-router-output1", Source: "router-1", Target: "output-1", Type: "default"},
		{ID: "edge-router-output2", Source: "router-1", Target: "output-2", Type: "default"},
		{ID: "edge-router-output3", Source: "router-1", Target: "output-3", Type: "default"},
	}

	return Workflow{
		ID:          id,
		Name:        "Content Analyzer Demo",
		Description: "A demo workflow that analyzes text content and routes based on sentiment",
		Nodes:       nodes,
		Edges:       edges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
