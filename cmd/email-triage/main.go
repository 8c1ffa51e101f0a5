// email-triage classifies a single RFC 2822 email from a file or stdin
// against a preference document and prints the verdict.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/Chance101/email-agent/internal/config"
	"github.com/Chance101/email-agent/internal/core"
	"github.com/Chance101/email-agent/internal/factory"
	"github.com/Chance101/email-agent/internal/logging"
	"github.com/Chance101/email-agent/internal/prefs"
	"github.com/Chance101/email-agent/internal/utils"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider = flag.String("provider", "openai", "LLM provider (openai, gemini, bedrock)")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Input flags
	prefsPath  = flag.String("prefs", "config/user_preferences.json", "Path to preference document")
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	draftReply = flag.Bool("draft", false, "Also generate a reply draft")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Load the preference document
	store := prefs.NewStore(cfg.GetString("prefs.path"), logger)
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load preferences", zap.Error(err))
	}

	// Initialize completion client; nil means rules-only mode
	llmClient, err := factory.NewLLMFactory(cfg, logger).CreateCompletionClient()
	if err != nil {
		logger.Fatal("Failed to create completion client", zap.Error(err))
	}

	service := buildService(cfg, llmClient, store, logger)

	email, err := readEmail(logger)
	if err != nil {
		logger.Fatal("Failed to read email", zap.Error(err))
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	fmt.Printf("\n=== Classification ===\n")
	startTime := time.Now()
	verdict := service.Classify(context.Background(), email)
	duration := time.Since(startTime)

	fmt.Printf("Show to user: %t\n", verdict.ShowToUser)
	fmt.Printf("Importance score: %.4f\n", verdict.ImportanceScore)
	fmt.Printf("Suggested action: %s\n", verdict.Action)
	fmt.Printf("Requires response: %t\n", verdict.RequiresResponse)
	fmt.Printf("Processing time: %v\n", duration)

	if *draftReply {
		fmt.Printf("\n=== Reply Draft ===\n")
		fmt.Println(service.GenerateReply(context.Background(), email))
	}

	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close completion client", zap.Error(err))
		}
	}
}

// buildService wires the classification engine without a cache; one
// email per invocation has nothing to reuse.
func buildService(cfg *config.Config, llmClient core.CompletionClient, store *prefs.Store, logger *zap.Logger) *core.TriageService {
	textProcessor := utils.NewTextProcessor(logger)

	timeout, err := cfg.GetDuration("llm.timeout")
	if err != nil {
		timeout = 30 * time.Second
	}

	advisor := core.NewAdvisor(llmClient, nil, logger, textProcessor, core.AdvisorOptions{
		Timeout:     timeout,
		MaxBodySize: cfg.GetInt("advisor.max_body_size"),
		Temperature: float32(cfg.GetFloat64("advisor.temperature")),
		MaxTokens:   cfg.GetInt("advisor.max_tokens"),
	})
	drafter := core.NewDrafter(llmClient, logger, textProcessor, core.DrafterOptions{
		Timeout:     timeout,
		MaxBodySize: cfg.GetInt("drafter.max_body_size"),
		Temperature: float32(cfg.GetFloat64("drafter.temperature")),
		MaxTokens:   cfg.GetInt("drafter.max_tokens"),
	})

	return core.NewTriageService(core.NewRuleEvaluator(logger), advisor, drafter, store, logger)
}

// readEmail parses an RFC 2822 message from the input file or stdin.
func readEmail(logger *zap.Logger) (*core.Email, error) {
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	return &core.Email{
		Sender:  msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
		Body:    string(bodyBytes),
	}, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)
	v.Set("prefs.path", *prefsPath)

	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
	}

	return config.NewFromViper(v)
}
