package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/plrectco/dcf/api"
	"github.com/plrectco/dcf/internal/logger"
	"github.com/plrectco/dcf/internal/repository"
	"github.com/plrectco/dcf/internal/service"
	"github.com/plrectco/dcf/internal/util"
	interestrate "github.com/plrectco/dcf/pkg/interest_rate"
	"github.com/plrectco/dcf/pkg/yahoo"
)

func NewInterestRateRepository(cfg util.Config, httpClient *http.Client) (repository.InterestRateRepository, error) {
	switch cfg.RiskFreeSource {
	case util.RiskFreeSourceTnx:
		return repository.NewTnxInterestRateRepository(), nil
	case util.RiskFreeSourceTreasury:
		return repository.NewTreasuryInterestRateRepository(
			interestrate.NewClient(cfg.TreasuryURL, httpClient),
		), nil
	}
	return nil, fmt.Errorf("unknown risk free source %q", cfg.RiskFreeSource)
}

func NewSnapshotRepository(cfg util.Config) (repository.SnapshotRepository, error) {
	switch cfg.Provider {
	case util.ProviderCsv:
		return repository.NewCsvSnapshotRepositoryFromFile(cfg.SnapshotFile)
	case util.ProviderYahoo:
		httpClient := &http.Client{
			Timeout: time.Duration(cfg.Yahoo.TimeoutSeconds) * time.Second,
		}
		interestRateRepository, err := NewInterestRateRepository(cfg, httpClient)
		if err != nil {
			return nil, err
		}
		client := yahoo.NewClient(cfg.Yahoo.BaseURL, httpClient, cfg.Yahoo.RequestsPerSecond)
		return repository.NewYahooSnapshotRepository(client, interestRateRepository), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func InitializeDependencies(cfg util.Config) (*api.ApiHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	snapshotRepository, err := NewSnapshotRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot repository: %w", err)
	}

	apiHandler := &api.ApiHandler{
		ValuationService: service.NewValuationService(snapshotRepository),
		Config:           cfg,
		Logger:           logger.New(),
	}

	return apiHandler, nil
}

func DefaultValuationOptions(cfg util.Config) service.ValuationOptions {
	return service.ValuationOptions{
		Years:              cfg.DefaultYears,
		TerminalGrowthRate: cfg.TerminalGrowthRate,
		MarketReturn:       cfg.MarketReturn,
	}
}
