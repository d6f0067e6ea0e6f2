// Command mnemo-inspect prints what an agent remembers about a user: the
// stored knowledge entries, preferences, or the rendered prompt digest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/pluralchat/mnemo/internal/config"
	"github.com/pluralchat/mnemo/internal/engine"
	"github.com/pluralchat/mnemo/pkg/types"
)

var (
	configPath = flag.String("config", "", "Path to config file (optional, uses env vars by default)")
	userID     = flag.String("user", "", "User ID to inspect (required)")
	agentID    = flag.String("agent", "", "Agent ID to inspect (required)")
	category   = flag.String("category", "", "Limit output to one knowledge category")
	digest     = flag.Bool("digest", false, "Print the prompt digest instead of raw entries")
	prefs      = flag.Bool("prefs", false, "Print preferences instead of raw entries")
)

func main() {
	flag.Parse()

	if *userID == "" || *agentID == "" {
		log.Fatal("both -user and -agent are required")
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer eng.Close()

	ctx := context.Background()

	switch {
	case *digest:
		out := eng.Knowledge().BuildDigest(ctx, *userID, *agentID)
		if out == "" {
			fmt.Println("(no knowledge recorded)")
			return
		}
		fmt.Println(out)

	case *prefs:
		p := eng.Knowledge().Preferences(ctx, *userID, *agentID)
		if len(p) == 0 {
			fmt.Println("(no preferences recorded)")
			return
		}
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %s\n", k, p[k])
		}

	default:
		var entries []types.KnowledgeEntry
		if *category != "" {
			cat := types.KnowledgeCategory(*category)
			if !types.IsValidKnowledgeCategory(cat) {
				log.Fatalf("unknown category %q (valid: %v)", *category, types.KnowledgeCategories)
			}
			entries = eng.Knowledge().GetByCategory(ctx, *userID, *agentID, cat)
		} else {
			entries = eng.Knowledge().GetAll(ctx, *userID, *agentID)
		}
		if len(entries) == 0 {
			fmt.Println("(no knowledge recorded)")
			return
		}
		for _, e := range entries {
			fmt.Printf("[%s] %s = %s (confidence %.2f, source %s, updated %s)\n",
				e.Category, e.Key, e.Value, e.Confidence, e.Source,
				e.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	}
}
