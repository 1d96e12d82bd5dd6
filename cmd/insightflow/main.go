// =============================================================================
// InsightFlow 主入口
// =============================================================================
// 研究报告流水线的命令行入口，覆盖完整的人机协同回路：
//
//	insightflow run "调研量子计算行业" --config config.yaml  # 发起任务
//	insightflow resume <instance-id> --answers "面向投资人"  # 注入澄清回答
//	insightflow inspect <instance-id>                        # 查看检查点
//	insightflow cancel <instance-id>                         # 丢弃实例
//	insightflow version                                      # 显示版本信息
//
// run 在任务需要澄清时打印问题与实例 ID 后退出；检查点落在配置的存储
// 后端里，之后用 resume 在新进程里接着跑。
// =============================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/insightflow"
	"github.com/BaSui01/insightflow/config"
	"github.com/BaSui01/insightflow/workflow"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runStart(os.Args[2:])
	case "resume":
		runResume(os.Args[2:])
	case "inspect":
		runInspect(os.Args[2:])
	case "cancel":
		runCancel(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🚀 run 命令
// =============================================================================

func runStart(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: insightflow run <task> [--config config.yaml]")
		os.Exit(1)
	}
	task := fs.Arg(0)

	ctx, stop, pipe, logger := setup(*configPath)
	defer stop()
	defer logger.Sync()

	result, err := pipe.Start(ctx, task)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
	printResult(result)
}

// =============================================================================
// ⏯️ resume 命令
// =============================================================================

func runResume(args []string) {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	answers := fs.String("answers", "", "Clarification answers to inject")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: insightflow resume <instance-id> --answers \"...\"")
		os.Exit(1)
	}
	instanceID := fs.Arg(0)

	ctx, stop, pipe, logger := setup(*configPath)
	defer stop()
	defer logger.Sync()

	input := workflow.Update{}
	if *answers != "" {
		input[workflow.FieldClarificationAnswers] = *answers
	}
	result, err := pipe.Resume(ctx, instanceID, input)
	if err != nil {
		logger.Fatal("resume failed", zap.Error(err))
	}
	printResult(result)
}

// =============================================================================
// 🔍 inspect / cancel 命令
// =============================================================================

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: insightflow inspect <instance-id>")
		os.Exit(1)
	}

	ctx, stop, pipe, logger := setup(*configPath)
	defer stop()
	defer logger.Sync()

	cp, err := pipe.Inspect(ctx, fs.Arg(0))
	if err != nil {
		logger.Fatal("inspect failed", zap.Error(err))
	}
	out, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		logger.Fatal("marshal checkpoint failed", zap.Error(err))
	}
	fmt.Println(string(out))
}

func runCancel(args []string) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: insightflow cancel <instance-id>")
		os.Exit(1)
	}

	ctx, stop, pipe, logger := setup(*configPath)
	defer stop()
	defer logger.Sync()

	if err := pipe.Cancel(ctx, fs.Arg(0)); err != nil {
		logger.Fatal("cancel failed", zap.Error(err))
	}
	fmt.Println("cancelled")
}

// =============================================================================
// 🔧 装配
// =============================================================================

// setup 加载配置、构建日志与流水线，并挂上信号取消。
// 返回的 stop 解除信号绑定，调用方负责 defer。
func setup(configPath string) (context.Context, context.CancelFunc, *insightflow.Pipeline, *zap.Logger) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)

	pipe, err := insightflow.New(cfg, insightflow.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, stop, pipe, logger
}

// serveMetrics 暴露 Prometheus 指标端点。
func serveMetrics(cfg config.MetricsConfig, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

// printResult 打印一次调用的结果：挂起时给出问题与 resume 提示，
// 完成时输出报告。
func printResult(result *workflow.Result) {
	fmt.Printf("instance: %s\n", result.InstanceID)
	fmt.Printf("status:   %s\n", result.Status)

	if result.Suspended() {
		fmt.Println("\n任务需要澄清，请回答以下问题：")
		for _, q := range result.State.ClarificationQuestions {
			fmt.Printf("  %s\n", q)
		}
		fmt.Printf("\n回答后继续：insightflow resume %s --answers \"...\"\n", result.InstanceID)
		return
	}

	if result.Outcome != "" {
		fmt.Printf("outcome:  %s\n", result.Outcome)
	}
	if result.State != nil {
		fmt.Printf("revisions: %d\n", result.State.RevisionCount)
		if result.State.DraftReport != "" {
			fmt.Printf("\n%s\n", result.State.DraftReport)
		}
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("InsightFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`InsightFlow - 人机协同的研究报告流水线

Usage:
  insightflow run <task> [--config config.yaml]       发起报告任务
  insightflow resume <id> --answers "..."             注入澄清回答并继续
  insightflow inspect <id>                            查看实例检查点
  insightflow cancel <id>                             丢弃实例
  insightflow version                                 显示版本信息
  insightflow help                                    显示帮助`)
}

// initLogger 根据配置构建 zap logger。
func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	opts := []zap.Option{}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
