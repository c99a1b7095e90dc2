package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	ragToolName    = "RAGQuery"
	searchToolName = "GoogleSearch"
)

// DefaultRAGDescription is used when the retrieval tool config carries none.
const DefaultRAGDescription = "Search information in documents to provide context to a user query. " +
	"Useful when asked to ground the answer in specific knowledge about Mock Bank Policy Global"

// RemoteToolCatalog resolves remote capability descriptors by name.
type RemoteToolCatalog interface {
	GetTool(ctx context.Context, name string) (RemoteToolDescriptor, error)
}

// RAGConfig enables the knowledge-retrieval tool.
type RAGConfig struct {
	VectorIndexID string
	Description   string
}

// Workspace carries the workspace identifiers remote tools scope to.
type Workspace struct {
	ProjectID string
	SpaceID   string
}

// AssembleConfig selects which providers join the toolkit.
type AssembleConfig struct {
	RAG                    *RAGConfig
	IncludeCodeInterpreter bool
	IncludeGoogleSearch    bool
	CustomTools            []CustomToolDefinition
	Workspace              Workspace
}

// Assembler composes remote adapters, the code sandbox, and compiled custom
// tools into one toolkit.
type Assembler struct {
	catalog  RemoteToolCatalog
	runner   RemoteToolRunner
	uploader ImageUploader
	logger   *zap.Logger
}

// NewAssembler constructs an assembler over the remote collaborators.
func NewAssembler(catalog RemoteToolCatalog, runner RemoteToolRunner, uploader ImageUploader, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{catalog: catalog, runner: runner, uploader: uploader, logger: logger}
}

// Assemble builds the toolkit in a fixed order regardless of how the
// configuration was populated: retrieval first, then the code interpreter,
// then search, then custom tools in config order. Disabling a provider omits
// its entry without shifting the others. Toolkits built from identical
// configuration list identically.
func (a *Assembler) Assemble(ctx context.Context, cfg AssembleConfig) (*Toolkit, error) {
	var items []Tool

	if cfg.RAG != nil {
		ragTool, err := a.buildRAGTool(ctx, *cfg.RAG, cfg.Workspace)
		if err != nil {
			return nil, err
		}
		items = append(items, ragTool)
	}

	if cfg.IncludeCodeInterpreter {
		items = append(items, NewCodeInterpreterTool(a.uploader, a.logger))
	}

	if cfg.IncludeGoogleSearch {
		descriptor, err := a.catalog.GetTool(ctx, searchToolName)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", searchToolName, err)
		}
		items = append(items, NewUtilityAgentTool(descriptor, a.runner, nil, ""))
	}

	for _, def := range cfg.CustomTools {
		tool, err := CompileCustomTool(def)
		if err != nil {
			return nil, err
		}
		items = append(items, tool)
	}

	kit, err := NewToolkit(items...)
	if err != nil {
		return nil, err
	}
	a.logger.Info("toolkit assembled", zap.Strings("tools", kit.Names()))
	return kit, nil
}

func (a *Assembler) buildRAGTool(ctx context.Context, cfg RAGConfig, workspace Workspace) (Tool, error) {
	descriptor, err := a.catalog.GetTool(ctx, ragToolName)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ragToolName, err)
	}

	config := map[string]any{"vectorIndexId": cfg.VectorIndexID}
	if workspace.ProjectID != "" {
		config["projectId"] = workspace.ProjectID
	}
	if workspace.SpaceID != "" {
		config["spaceId"] = workspace.SpaceID
	}

	description := cfg.Description
	if description == "" {
		description = DefaultRAGDescription
	}
	return NewUtilityAgentTool(descriptor, a.runner, config, description), nil
}
