// Command lirical runs a single differential-diagnosis analysis from the
// command line and writes the ranked result as TSV on stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/config"
	"github.com/justaddcoffee/LIRICAL/internal/repository"
	"github.com/justaddcoffee/LIRICAL/internal/service"
)

func main() {
	var (
		observed = flag.String("observed", "", "comma-separated observed HPO term ids (required)")
		excluded = flag.String("excluded", "", "comma-separated explicitly excluded HPO term ids")
		topK     = flag.Int("top", 20, "number of ranked diseases to print")
		quiet    = flag.Bool("quiet", false, "suppress progress logging")
	)
	flag.Parse()

	if *observed == "" && *excluded == "" {
		flag.Usage()
		os.Exit(2)
	}

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *quiet {
		logger.SetLevel(logrus.ErrorLevel)
	}

	ctx := context.Background()
	repo, err := repository.Open(cfg.Resources.DatabasePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open resource database")
	}
	defer repo.Close()

	svc, err := service.NewAnalysisService(ctx, repo, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build analysis service")
	}

	result, err := svc.AnalyzeCase(ctx, &service.AnalyzeCaseParams{
		ObservedTerms: splitTerms(*observed),
		ExcludedTerms: splitTerms(*excluded),
		TopK:          *topK,
	})
	if err != nil {
		logger.WithError(err).Fatal("Analysis failed")
	}

	writeTSV(result)
}

func splitTerms(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func writeTSV(result *service.AnalyzeCaseResult) {
	fmt.Println("rank\tdisease_id\tdisease_name\tposttest_probability\tcomposite_lr\texplanations")
	for _, row := range result.Ranking {
		fmt.Printf("%d\t%s\t%s\t%.6g\t%.6g\t%s\n",
			row.Rank,
			row.DiseaseID,
			row.DiseaseName,
			row.PosttestProbability,
			row.CompositeLR,
			strings.Join(row.Explanations, "; "),
		)
	}
	for _, dropped := range result.DroppedTerms {
		fmt.Fprintf(os.Stderr, "warning: dropped unknown term %s\n", dropped)
	}
}
