// Command local-extract runs the document parser, or the whole pipeline, from a
// workstation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/Lllllllleong/pdfnarration/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile     string
	verbose     bool
	saveText    bool
	concurrency int
	bucket      string
	key         string
)

var rootCmd = &cobra.Command{
	Use:   "local-extract",
	Short: "Run the PDF text pipeline locally",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract text and metadata from a local PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full pipeline against an object in the configured store",
	RunE:  runProcess,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	extractCmd.Flags().BoolVar(&saveText, "save", false, "write the text to <file>.extracted.txt")
	extractCmd.Flags().IntVar(&concurrency, "concurrency", 8, "pages extracted in parallel")
	rootCmd.AddCommand(extractCmd)

	processCmd.Flags().StringVarP(&bucket, "bucket", "b", "", "source bucket (required)")
	processCmd.Flags().StringVarP(&key, "key", "k", "", "percent-encoded object key (required)")
	processCmd.MarkFlagRequired("bucket")
	processCmd.MarkFlagRequired("key")
	rootCmd.AddCommand(processCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !services.IsPDFKey(path) {
		return fmt.Errorf("%s is not a .pdf file", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	result := &models.PipelineResult{Source: &models.SourceObjectRef{Namespace: "local", RawKey: path, Key: path}}
	doc, err := services.NewPDFParser(concurrency).Parse(cmd.Context(), raw)
	if err != nil {
		result.Status = models.StatusError
		result.Message = "PDF processing failed"
		result.Error = err.Error()
		result.ErrorKind = string(services.KindOf(err))
		return printJSON(cmd, result)
	}

	text := services.JoinPages(doc.Pages)
	result.Status = models.StatusSuccess
	result.Message = "PDF processed successfully"
	result.Metadata = doc.Metadata
	result.PageCount = doc.PageCount
	result.Warnings = doc.Warnings
	result.TextLength, result.TextSample = services.TextSummary(text)

	if saveText {
		out := services.KeyBase(path) + ".extracted.txt"
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		result.TextLocation = &models.ObjectLocation{Namespace: "local", Key: out, URI: "file://" + out}
	}
	return printJSON(cmd, result)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	pipeline, err := services.NewPipelineFromEnv(ctx)
	if err != nil {
		return err
	}
	var req models.ProcessRequest
	req.Source.Namespace = bucket
	req.Source.RawKey = key
	return printJSON(cmd, pipeline.Process(ctx, req))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
