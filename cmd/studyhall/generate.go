package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyhall/internal/config"
	"studyhall/internal/gen"
)

var (
	genTopic      string
	genSummary    string
	genTopics     []string
	genExamType   string
	genDifficulty string
	genDuration   int
	genMarks      int
	genInput      string
)

// generateCmd runs one generation request and prints the envelope
var generateCmd = &cobra.Command{
	Use:   "generate [ingest|lesson|exam]",
	Short: "Run a single generation request and print the result as JSON",
	Long: `One-shot generation without the HTTP server. Context is read from
--input (a file path, or - for stdin). The printed object carries a
provenance field: "primary" when the AI interpreter produced it,
"degraded" when the deterministic fallback did.

Examples:
  studyhall generate ingest --input notes.txt
  studyhall generate lesson --topic Recursion --summary "Functions calling themselves"
  studyhall generate exam --topics Graphs,Sorting --marks 50 --exam-type quiz`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ingest", "lesson", "exam"},
	RunE:      runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "Topic name (lesson)")
	generateCmd.Flags().StringVar(&genSummary, "summary", "", "Topic summary (lesson)")
	generateCmd.Flags().StringSliceVar(&genTopics, "topics", nil, "Topic names (exam)")
	generateCmd.Flags().StringVar(&genExamType, "exam-type", "quiz", "Exam type (exam)")
	generateCmd.Flags().StringVar(&genDifficulty, "difficulty", "", "Difficulty (exam)")
	generateCmd.Flags().IntVar(&genDuration, "duration", 60, "Duration in minutes (exam)")
	generateCmd.Flags().IntVar(&genMarks, "marks", 50, "Total marks (exam)")
	generateCmd.Flags().StringVar(&genInput, "input", "", "Context file, or - for stdin")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	contentType := gen.ContentType(args[0])
	payload, err := readInput(genInput)
	if err != nil {
		return err
	}

	req := gen.GenerationRequest{
		ContentType:    contentType,
		ContextPayload: payload,
		Parameters: gen.Parameters{
			SourceName:      genInput,
			TopicName:       genTopic,
			TopicSummary:    genSummary,
			Topics:          genTopics,
			ExamType:        genExamType,
			Difficulty:      genDifficulty,
			DurationMinutes: genDuration,
			TotalMarks:      genMarks,
		},
	}
	if contentType == gen.ContentLesson && genTopic == "" {
		return fmt.Errorf("--topic is required for lesson generation")
	}

	gateway := gen.NewGateway(cfg)
	envelope, provenance := gateway.Generate(cmd.Context(), req)

	logger.Debug("generation finished", zap.String("provenance", string(provenance)))

	out := struct {
		Provenance gen.Provenance       `json:"provenance"`
		Content    *gen.ContentEnvelope `json:"content"`
	}{provenance, envelope}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
}
