// issueqa-evaluate runs a fixed query set through the query session and
// writes a CSV report with the generated answers and response times. The
// relevance column is left blank for manual annotation.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/builder"
)

const outputFile = "rag_evaluation_results.csv"

var testQueries = []string{
	"How can I filter Kubernetes replication controllers using labels?",
	"What is the difference between Deployment and StatefulSet in Kubernetes?",
	"How to use labels for filtering Kubernetes pods?",
	"How do I delete a stuck Kubernetes namespace?",
	"How to create a ConfigMap from a file?",
	"Explain rolling update strategy in Kubernetes.",
	"How do I access logs from a crashed pod?",
	"How can I use taints and tolerations?",
	"How to mount a volume in a pod?",
	"What are common Kubernetes troubleshooting commands?",
}

func main() {
	uc, logger, err := builder.BuildQueryService()
	if err != nil {
		log.Fatal("Failed to build query service:", err)
	}
	defer logger.Sync()

	f, err := os.Create(outputFile)
	if err != nil {
		logger.Fatal("Failed to create output file", zap.Error(err))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"Query", "GeneratedAnswer", "ResponseTimeSeconds", "ManualRelevanceScore"}
	if err := w.Write(header); err != nil {
		logger.Fatal("Failed to write CSV header", zap.Error(err))
	}

	for _, q := range testQueries {
		resp := uc.Query(context.Background(), q)

		row := []string{q, resp.Answer, fmt.Sprintf("%.2f", resp.ProcessingTime), ""}
		if err := w.Write(row); err != nil {
			logger.Fatal("Failed to write CSV row", zap.Error(err))
		}

		logger.Info("query evaluated",
			zap.String("query", q),
			zap.Float64("seconds", resp.ProcessingTime),
			zap.Int("sources", len(resp.Sources)),
		)
	}

	logger.Info("Evaluation completed", zap.String("output", outputFile))
}
