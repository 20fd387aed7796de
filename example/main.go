package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/config"
	"github.com/meikuraledutech/flow/engine"
	"github.com/meikuraledutech/flow/graph"
	"github.com/meikuraledutech/flow/layout"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/openai"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := config.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	// Wire up the in-memory implementation behind the Store interface.
	var store flow.Store = memory.New()
	g := graph.New(store, graph.WithLogger(logger))

	// 1. Load the demo workflow
	demo := g.CreateDemoWorkflow(ctx)
	fmt.Printf("workflow created: %s (%d nodes, %d edges)\n", demo.Name, len(demo.Nodes), len(demo.Edges))

	// ── Edit: reconfigure the analysis task ──────────────────────────
	task, err := g.UpdateNodeConfiguration(ctx, "task-1",
		json.RawMessage(`{"prompt": "Describe the sentiment of the text in one sentence."}`))
	if err != nil {
		log.Fatalf("update configuration: %v", err)
	}
	fmt.Println("\ntask updated:")
	printJSON(task)

	// ── Layout ────────────────────────────────────────────────────────
	nodes := g.AutoLayout(ctx, layout.Options{Direction: layout.Horizontal})
	fmt.Println("\nlayout (horizontal):")
	for _, n := range nodes {
		fmt.Printf("  %-10s x=%-5.0f y=%.0f\n", n.ID, n.Position.X, n.Position.Y)
	}

	if _, err := g.SaveWorkflow(ctx); err != nil {
		log.Fatalf("save: %v", err)
	}

	// ── Execute ───────────────────────────────────────────────────────
	var executor engine.TaskExecutor
	if cfg.OpenAI.APIKey != "" {
		executor, err = openai.New(cfg.OpenAI.APIKey,
			openai.WithModel(cfg.OpenAI.Model),
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithTimeout(cfg.OpenAI.Timeout),
		)
		if err != nil {
			log.Fatalf("executor: %v", err)
		}
	} else {
		fmt.Println("\nOPENAI_API_KEY is not set, using an offline executor")
		executor = engine.ExecutorFunc(func(_ context.Context, taskType flow.TaskType, input, _ string) (string, error) {
			return fmt.Sprintf("[%s] %s", taskType, strings.ToUpper(input)), nil
		})
	}

	snapNodes, snapEdges := g.Snapshot()
	result, err := engine.New(executor, engine.WithLogger(logger)).Run(ctx, snapNodes, snapEdges, "")
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	fmt.Println("\nresults:")
	printJSON(result)

	// ── Export ────────────────────────────────────────────────────────
	data, err := g.ExportWorkflow()
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("\nexported %d bytes\n", len(data))

	// ── Cleanup ───────────────────────────────────────────────────────
	g.DeleteWorkflow(ctx, demo.ID)
	fmt.Println("workflow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
