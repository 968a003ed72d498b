// issueqa-cli is an interactive front-end over the query session: type a
// question about the indexed issues, get an answer with its sources.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/avoskr/issueqa-backend/internal/builder"
)

func main() {
	uc, logger, err := builder.BuildQueryService()
	if err != nil {
		log.Fatal("Failed to build query service:", err)
	}
	defer logger.Sync()

	fmt.Println("Issue QA assistant (type 'exit' to quit)")
	fmt.Println(strings.Repeat("=", 50))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYour question: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(question, "exit") {
			break
		}

		resp := uc.Query(context.Background(), question)

		fmt.Println("\nAnswer:")
		fmt.Println(resp.Answer)

		if len(resp.Sources) > 0 {
			fmt.Println("\nSources:")
			for i, src := range resp.Sources {
				fmt.Printf("\n%d. Issue #%s\n", i+1, src.IssueNumber)
				fmt.Printf("   URL: %s\n", src.URL)
				fmt.Printf("   Distance: %.2f\n", src.SimilarityScore)
				fmt.Printf("   Preview: %s\n", src.Content)
			}
		}
	}
}
