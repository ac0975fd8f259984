package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/brand-intelligence-agent/agent/nodes/analysis"
)

func (o *Orchestrator) compileAnalyzeGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_customer",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveCustomer(ctx, in, o.identity)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_customer: %w", err)
	}

	if err := graph.AddLambdaNode("persist_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistMessage(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_message: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_trust",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveTrust(ctx, in, o.identity)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_trust: %w", err)
	}

	if err := graph.AddLambdaNode("build_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildContext(ctx, in, o.store, o.kb, o.prompts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_context: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_agent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeAgent(ctx, in, o.agent)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_agent: %w", err)
	}

	if err := graph.AddLambdaNode("parse_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ParseResult(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node parse_result: %w", err)
	}

	if err := graph.AddLambdaNode("persist_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistResult(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_result: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_effects",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchEffects(ctx, in, o.memory, o.publisher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_effects: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "resolve_customer"},
		{"resolve_customer", "persist_message"},
		{"persist_message", "resolve_trust"},
		{"resolve_trust", "build_context"},
		{"build_context", "invoke_agent"},
		{"invoke_agent", "parse_result"},
		{"parse_result", "persist_result"},
		{"persist_result", "dispatch_effects"},
		{"dispatch_effects", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.analyze_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
