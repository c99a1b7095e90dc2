package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/agent"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/auth"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/config"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/governance"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/llm"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/render"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/tools"
	"github.com/Team-Armadillo-IBM/Team-Armadillo-Final/internal/watsonx"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agentlab [question]",
		Short:         "agentlab - watsonx loan-risk agent with a composable toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}

			mockMode := os.Getenv("AGENTLAB_MOCK_LLM") == "1"

			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			var client llm.Client
			var toolkit *tools.Toolkit
			if mockMode {
				client = llm.NewMockClient()
				toolkit, err = buildMockToolkit(ctx, cfg, logger)
			} else {
				client, toolkit, err = buildWatsonx(ctx, cfg, logger)
			}
			if err != nil {
				return err
			}

			if cfg.JSON {
				ag := agent.NewAgent(client, toolkit, nil, logger, cfg)
				result, runErr := ag.Run(ctx, question)
				if cfg.PersistRuns {
					persistRun(logger, cfg, result)
				}
				payload, _ := json.MarshalIndent(result, "", "  ")
				fmt.Fprintln(os.Stdout, string(payload))
				return runErr
			}

			writer := io.Writer(os.Stdout)
			var logFile *os.File
			if cfg.LogFile != "" {
				file, err := os.Create(cfg.LogFile)
				if err != nil {
					return err
				}
				logFile = file
				writer = io.MultiWriter(os.Stdout, logFile)
			}
			renderer := render.NewStdoutRenderer(writer, cfg.Verbose, cfg.Quiet)
			ag := agent.NewAgent(client, toolkit, renderer, logger, cfg)
			result, runErr := ag.Run(ctx, question)
			_ = renderer.Close()
			if logFile != nil {
				_ = logFile.Close()
			}
			if cfg.PersistRuns {
				persistRun(logger, cfg, result)
			}
			return runErr
		},
	}

	cmd.Flags().String("model", config.DefaultModel, "Model name")
	cmd.Flags().Int("max-steps", config.DefaultMaxSteps, "Maximum tool steps")
	cmd.Flags().String("timeout", config.DefaultTimeout.String(), "Timeout (e.g. 60s)")
	cmd.Flags().String("project-id", "", "watsonx project id")
	cmd.Flags().String("space-id", "", "watsonx deployment space id")
	cmd.Flags().String("vector-index-id", "", "Vector index id for document retrieval")
	cmd.Flags().Bool("no-code", false, "Disable the code interpreter tool")
	cmd.Flags().Bool("no-search", false, "Disable the web search tool")
	cmd.Flags().Bool("quiet", false, "Only print final answer")
	cmd.Flags().Bool("json", false, "Output JSON only")
	cmd.Flags().Bool("verbose", false, "Enable verbose logging")
	cmd.Flags().String("log-file", "", "Write plain-text output to a file")
	cmd.Flags().Bool("persist-runs", false, "Write a governance record for each run")
	cmd.Flags().String("governance-dir", config.DefaultGovernanceDir, "Directory for governance records")

	return cmd
}

// buildWatsonx wires credentials, the service client, and the assembled
// toolkit for a real run.
func buildWatsonx(ctx context.Context, cfg config.Config, logger *zap.Logger) (llm.Client, *tools.Toolkit, error) {
	credentials, err := auth.LoadCredentials(cfg.APIKey, cfg.WatsonxURL)
	if err != nil {
		return nil, nil, err
	}
	tokens := auth.NewTokenSource(credentials, logger)

	workspace := tools.Workspace{ProjectID: cfg.ProjectID, SpaceID: cfg.SpaceID}
	wx := watsonx.NewClient(cfg.DataPlatformURL, tokens, workspace, logger)

	assembler := tools.NewAssembler(wx, wx, wx, logger)
	toolkit, err := assembler.Assemble(ctx, assembleConfig(cfg))
	if err != nil {
		return nil, nil, err
	}

	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, nil, err
	}
	endpoint := cfg.ChatEndpoint
	if endpoint == "" {
		endpoint = strings.TrimSuffix(credentials.URL, "/") + "/ml/v1"
	}
	client := llm.NewGraniteClient(token, endpoint, cfg.ProjectID)
	return client, toolkit, nil
}

// buildMockToolkit assembles only local tools so mock runs need no service
// credentials.
func buildMockToolkit(ctx context.Context, cfg config.Config, logger *zap.Logger) (*tools.Toolkit, error) {
	local := assembleConfig(cfg)
	local.RAG = nil
	local.IncludeGoogleSearch = false
	assembler := tools.NewAssembler(nil, nil, nil, logger)
	return assembler.Assemble(ctx, local)
}

func assembleConfig(cfg config.Config) tools.AssembleConfig {
	out := tools.AssembleConfig{
		IncludeCodeInterpreter: cfg.Toolkit.IncludeCodeInterpreter,
		IncludeGoogleSearch:    cfg.Toolkit.IncludeGoogleSearch,
		Workspace:              tools.Workspace{ProjectID: cfg.ProjectID, SpaceID: cfg.SpaceID},
	}
	if cfg.Toolkit.VectorIndexID != "" {
		out.RAG = &tools.RAGConfig{VectorIndexID: cfg.Toolkit.VectorIndexID, Description: cfg.Toolkit.RAGDescription}
	}
	for _, custom := range cfg.Toolkit.CustomTools {
		out.CustomTools = append(out.CustomTools, tools.CustomToolDefinition{
			Name:         custom.Name,
			Description:  custom.Description,
			Source:       custom.Code,
			InputSchema:  custom.Schema,
			StaticParams: custom.Params,
		})
	}
	return out
}

func persistRun(logger *zap.Logger, cfg config.Config, result agent.RunResult) {
	path, err := governance.Write(cfg.GovernanceDir, result, logger)
	if err != nil {
		logger.Warn("failed to write governance record", zap.Error(err))
		return
	}
	logger.Info("governance record written", zap.String("path", path))
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
