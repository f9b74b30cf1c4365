package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ougirez/restorank/internal/api"
	"github.com/ougirez/restorank/internal/api/controller"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/pkg/store"
	"github.com/ougirez/restorank/internal/scheduler"
	"github.com/ougirez/restorank/internal/service/auth"
	"github.com/ougirez/restorank/internal/service/contacts"
	"github.com/ougirez/restorank/internal/service/curation"
	"github.com/ougirez/restorank/internal/service/providers"
	"github.com/ougirez/restorank/internal/service/ranking"
	"github.com/ougirez/restorank/internal/service/region"
	"github.com/ougirez/restorank/internal/service/reviews"
	"github.com/ougirez/restorank/internal/service/sentiment"
	"github.com/spf13/viper"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := loadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if err := logger.Init(viper.GetString(constants.ViperLogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, viper.GetString(constants.ViperDBDriver), viper.GetString(constants.ViperDBDSN))
	if err != nil {
		logger.Errorf(ctx, "open store: %s", err.Error())
		return 1
	}
	defer st.Close()

	if err = st.Migrate(ctx); err != nil {
		logger.Errorf(ctx, "migrate: %s", err.Error())
		return 1
	}

	analyzer := sentiment.NewAnalyzer(nil, nil)
	if model, err := sentiment.NewLexiconModel(); err != nil {
		logger.Warnf(ctx, "sentiment model unavailable, using keyword heuristic: %s", err.Error())
	} else {
		analyzer = sentiment.NewAnalyzer(model, nil)
	}

	regionService := region.NewRegionService(st)
	rankingService := ranking.NewRankingService(st, regionService)
	if _, err = rankingService.EnsureWeights(ctx); err != nil {
		logger.Errorf(ctx, "ensure ranking weights: %s", err.Error())
		return 1
	}

	reviewsService := reviews.NewReviewsService(st, analyzer, rankingService)
	curationService := curation.NewCurationService(st, regionService, curation.Config{
		DefaultTopN:  viper.GetInt(constants.ViperCurationTopN),
		PushEndpoint: viper.GetString(constants.ViperPushEndpoint),
		PushToken:    viper.GetString(constants.ViperPushToken),
	})
	providersService := providers.NewProvidersService(st, reviewsService, rankingService, providers.Config{
		APIKey:        viper.GetString(constants.ViperPlacesAPIKey),
		BaseURL:       viper.GetString(constants.ViperPlacesBaseURL),
		RatePerSecond: viper.GetFloat64(constants.ViperPlacesRateLimit),
	})
	contactsService := contacts.NewContactsService(st, contacts.Config{
		Concurrency: viper.GetInt(constants.ViperContactsConcurrency),
		Timeout:     viper.GetDuration(constants.ViperContactsTimeout),
	})
	authService := auth.NewService(viper.GetString(constants.ViperSecretKey))

	cntrl := controller.NewController(
		authService,
		regionService,
		rankingService,
		reviewsService,
		curationService,
		providersService,
		contactsService,
	)

	apiService, err := api.NewAPIService(viper.GetStringSlice(constants.ViperHTTPAllowOrigin), authService, cntrl)
	if err != nil {
		logger.Errorf(ctx, "init api: %s", err.Error())
		return 1
	}

	sched, err := scheduler.New(
		viper.GetString(constants.ViperScheduleCron),
		viper.GetString(constants.ViperScheduleTimezone),
		regionService,
		rankingService,
		reviewsService,
	)
	if err != nil {
		logger.Errorf(ctx, "init scheduler: %s", err.Error())
		return 1
	}
	sched.Start()

	addr := viper.GetString(constants.ViperHTTPAddr)
	go apiService.Serve(addr)
	logger.Infof(ctx, "listening on %s", addr)

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = apiService.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "http shutdown: %s", err.Error())
	}
	if err = sched.Stop(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "scheduler stop: %s", err.Error())
	}

	return 0
}
