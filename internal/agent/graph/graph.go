package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/hydrochat-core/server/internal/agent/graph/nodes"
	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Optimizer nodes.PromptOptimizer
	Router    nodes.Router
	Log       nodes.Recorder
	Savings   nodes.SavingsApplier
	Phase     nodes.PhaseFunc
}

// GraphBuilder handles the construction of the turn pipeline graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *model.TurnOutcome]
}

// BuildGraph constructs and returns the compiled turn pipeline:
//
//	START -> PromptOptimizer -> GreenRouter -> ResolveSuccess | ResolveFailure -> END
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *model.TurnOutcome], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Optimizer == nil || config.Router == nil {
		return nil, fmt.Errorf("optimizer and router are required")
	}
	if config.Log == nil || config.Savings == nil {
		return nil, fmt.Errorf("session log and savings aggregator are required")
	}
	if config.Phase == nil {
		config.Phase = func(model.TurnPhase) {}
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.TurnOutcome](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cfg := b.config
	steps := []struct {
		key  string
		node *compose.Lambda
		opts []compose.GraphAddNodeOpt
	}{
		{
			key:  nodes.NodeOptimizer,
			node: nodes.NewOptimizerNode(cfg.Optimizer),
			opts: []compose.GraphAddNodeOpt{
				compose.WithStatePreHandler(nodes.NewOptimizerPreHandler(cfg.Phase)),
				compose.WithStatePostHandler(nodes.NewOptimizerPostHandler(cfg.Log)),
			},
		},
		{
			key:  nodes.NodeRouter,
			node: nodes.NewRouterNode(cfg.Router),
			opts: []compose.GraphAddNodeOpt{
				compose.WithStatePreHandler(nodes.NewRouterPreHandler(cfg.Phase)),
			},
		},
		{key: nodes.NodeResolveSuccess, node: nodes.NewResolveSuccessNode(cfg.Log, cfg.Savings, cfg.Phase)},
		{key: nodes.NodeResolveFailure, node: nodes.NewResolveFailureNode(cfg.Log, cfg.Savings, cfg.Phase)},
	}

	for _, s := range steps {
		opts := append(s.opts, compose.WithNodeName(s.key))
		if err := b.graph.AddLambdaNode(s.key, s.node, opts...); err != nil {
			return fmt.Errorf("error adding node %s: %w", s.key, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeOptimizer},
		{nodes.NodeOptimizer, nodes.NodeRouter},
		{nodes.NodeResolveSuccess, compose.END},
		{nodes.NodeResolveFailure, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	resolveBranch := compose.NewGraphBranch(
		nodes.NewResolveCondition(),
		map[string]bool{
			nodes.NodeResolveSuccess: true,
			nodes.NodeResolveFailure: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRouter, resolveBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding resolve branch")
		return fmt.Errorf("error adding resolve branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnOutcome], error) {
	// The pipeline is acyclic; anything past its four nodes is a wiring bug.
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("TurnPipeline"),
		compose.WithMaxRunSteps(10),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
