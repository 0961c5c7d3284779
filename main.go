package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booklend/ai"
	"booklend/cache"
	"booklend/config"
	"booklend/database"
	"booklend/loan"
	"booklend/log"
	"booklend/model"
	"booklend/pipeline"
	"booklend/store"
)

const greetingBanner = `
██████   ██████   ██████  ██   ██ ██      ███████ ███    ██ ██████
██   ██ ██    ██ ██    ██ ██  ██  ██      ██      ████   ██ ██   ██
██████  ██    ██ ██    ██ █████   ██      █████   ██ ██  ██ ██   ██
██   ██ ██    ██ ██    ██ ██  ██  ██      ██      ██  ██ ██ ██   ██
██████   ██████   ██████  ██   ██ ███████ ███████ ██   ████ ██████
`

var (
	configFile     string
	forceSummaries bool

	rootCmd = &cobra.Command{
		Use:   "booklend",
		Short: "Booklend is a peer-to-peer book lending service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var opts *config.Options
			var err error
			if configFile != "" {
				opts, err = config.ParseFile(configFile)
			} else {
				opts, err = config.GetConfig()
			}
			if err != nil {
				return err
			}
			config.Opts = opts
			log.Logger = log.NewLogger()
			return nil
		},
		RunE: runWorker,
	}

	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Run the AI task pipeline workers",
		RunE:  runWorker,
	}

	summariesCmd = &cobra.Command{
		Use:   "summaries",
		Short: "Generate AI summaries for books that are missing one",
		RunE:  runSummaries,
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Reconcile book availability with the loan table",
		RunE:  runCheck,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")
	summariesCmd.Flags().BoolVar(&forceSummaries, "force", false, "regenerate summaries for all books")
	rootCmd.AddCommand(workerCmd, summariesCmd, checkCmd)
}

func openStore(ctx context.Context) (*store.Store, error) {
	db, err := database.NewDB()
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}
	s := store.NewStore(db)
	if err := s.Ping(); err != nil {
		return nil, err
	}
	return s, nil
}

// newCapability picks the AI backend at construction time: the real one when
// a key is configured, the deterministic stub otherwise.
func newCapability() ai.Capability {
	if config.Opts.AIAPIKey == "" {
		log.Warn("No AI API key configured, using the deterministic stub")
		return ai.NewStub()
	}
	return ai.NewOpenAI(ai.OpenAIOptions{
		BaseURL: config.Opts.AIBaseURL,
		APIKey:  config.Opts.AIAPIKey,
		Model:   config.Opts.AIModel,
		Timeout: time.Duration(config.Opts.AITimeout) * time.Second,
	})
}

func runWorker(cmd *cobra.Command, args []string) error {
	fmt.Println(greetingBanner)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	mem := cache.NewMemory(time.Minute)
	defer mem.Stop()

	pipe := pipeline.New(s, mem, newCapability(), pipeline.WithQueueSize(config.Opts.QueueSize))
	pipe.Start(ctx, config.Opts.WorkerPoolSize)

	<-ctx.Done()
	log.Info("Shutting down")
	pipe.Stop()
	return nil
}

func runSummaries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	mem := cache.NewMemory(0)
	pipe := pipeline.New(s, mem, newCapability())

	find := &model.FindBook{MissingSummary: !forceSummaries}
	books, err := s.ListBooks(find)
	if err != nil {
		return err
	}

	generated := 0
	for _, book := range books {
		if forceSummaries {
			pipe.InvalidateSummary(book.ID)
		}
		if err := pipe.GenerateSummary(ctx, book.ID); err != nil {
			log.Error("Summary generation failed",
				zap.Int("book_id", book.ID),
				zap.Error(err))
			continue
		}
		generated++
	}

	fmt.Printf("Generated summaries for %d of %d books\n", generated, len(books))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	drift, err := loan.NewManager(s).ReconcileAvailability()
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		fmt.Println("Availability projection is consistent")
		return nil
	}
	for _, d := range drift {
		fmt.Printf("book %d: repaired is_available=%t (active loans: %d)\n",
			d.BookID, d.ActiveLoans == 0, d.ActiveLoans)
	}
	return nil
}

func main() {
	defer log.Logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		log.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}
