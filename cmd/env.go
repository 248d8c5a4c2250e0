package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rxindex/medinfo-cli/internal/cache"
	"github.com/rxindex/medinfo-cli/internal/dataset"
	"github.com/rxindex/medinfo-cli/internal/dataset/niosh"
	"github.com/rxindex/medinfo-cli/internal/dataset/orangebook"
	"github.com/rxindex/medinfo-cli/internal/dataset/purplebook"
	"github.com/rxindex/medinfo-cli/internal/enrich"
	"github.com/rxindex/medinfo-cli/internal/fetcher"
	"github.com/rxindex/medinfo-cli/internal/ocr"
	"github.com/rxindex/medinfo-cli/internal/resolve"
	"github.com/rxindex/medinfo-cli/internal/store"
	"github.com/rxindex/medinfo-cli/pkg/dailymed"
	"github.com/rxindex/medinfo-cli/pkg/medlineplus"
	"github.com/rxindex/medinfo-cli/pkg/openfda"
	"github.com/rxindex/medinfo-cli/pkg/pubchem"
	"github.com/rxindex/medinfo-cli/pkg/rems"
	"github.com/rxindex/medinfo-cli/pkg/rxnav"
)

// env bundles the wired-up subsystems a command needs. Commands build
// only what they use: runs list needs the store, lookup needs the lot.
type env struct {
	store      store.Store
	cache      *cache.Store
	registry   *dataset.Registry
	engine     *dataset.Engine
	orangeBook *orangebook.Book
	purpleBook *purplebook.Book
	nioshList  *niosh.List
	resolver   *resolve.Resolver
	aggregator *enrich.Aggregator
}

func (e *env) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// initStore opens and migrates the sqlite run store.
func initStore(ctx context.Context) (store.Store, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLite(path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv wires the full lookup stack: store, dataset cache, ingestors,
// resolver, and the enrichment aggregator with all upstream clients.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.HTTP.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	c := cache.New(cacheDir, f)

	extractor, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init pdf extractor")
	}

	ob := orangebook.New(c, cfg.Datasets.OrangeBook)
	pb := purplebook.New(c, cfg.Datasets.PurpleBook)
	nl := niosh.New(c, extractor, cfg.Datasets.NIOSH)

	reg := dataset.NewRegistry()
	reg.Register(ob)
	reg.Register(pb)
	reg.Register(nl)

	fda := openfda.NewClient(cfg.OpenFDA.Key,
		openfda.WithBaseURL(cfg.OpenFDA.BaseURL),
		openfda.WithUserAgent(cfg.HTTP.UserAgent),
	)
	rx := rxnav.NewClient(
		rxnav.WithBaseURL(cfg.RxNav.BaseURL),
		rxnav.WithUserAgent(cfg.HTTP.UserAgent),
	)
	chem := pubchem.NewClient(
		pubchem.WithBaseURL(cfg.PubChem.BaseURL),
		pubchem.WithUserAgent(cfg.HTTP.UserAgent),
	)
	daily := dailymed.NewClient(
		dailymed.WithBaseURL(cfg.DailyMed.BaseURL),
		dailymed.WithUserAgent(cfg.HTTP.UserAgent),
	)
	medline := medlineplus.NewClient(
		medlineplus.WithBaseURL(cfg.MedlinePlus.BaseURL),
		medlineplus.WithUserAgent(cfg.HTTP.UserAgent),
	)
	remsClient := rems.NewClient(
		rems.WithDatabaseURL(cfg.REMS.DatabaseURL),
		rems.WithUserAgent(cfg.HTTP.UserAgent),
	)

	agg := enrich.New(enrich.Deps{
		OpenFDA:     fda,
		RxNav:       rx,
		PubChem:     chem,
		DailyMed:    daily,
		MedlinePlus: medline,
		REMS:        remsClient,
		OrangeBook:  ob,
		PurpleBook:  pb,
		NIOSH:       nl,
	}, cfg.REMS, cfg.Lookup)

	return &env{
		store:      st,
		cache:      c,
		registry:   reg,
		engine:     dataset.NewEngine(reg, st),
		orangeBook: ob,
		purpleBook: pb,
		nioshList:  nl,
		resolver:   resolve.NewResolver(fda, rx),
		aggregator: agg,
	}, nil
}
