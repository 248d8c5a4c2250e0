// Package enrich merges the optional per-source blocks onto a resolved
// label identity. Every block is best-effort: an upstream failure turns
// into a plain-language note on the record, never an error for the whole
// lookup.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rxindex/medinfo-cli/internal/config"
	"github.com/rxindex/medinfo-cli/internal/dataset/niosh"
	"github.com/rxindex/medinfo-cli/internal/dataset/orangebook"
	"github.com/rxindex/medinfo-cli/internal/dataset/purplebook"
	"github.com/rxindex/medinfo-cli/internal/resilience"
	"github.com/rxindex/medinfo-cli/internal/resolve"
	"github.com/rxindex/medinfo-cli/pkg/dailymed"
	"github.com/rxindex/medinfo-cli/pkg/medlineplus"
	"github.com/rxindex/medinfo-cli/pkg/openfda"
	"github.com/rxindex/medinfo-cli/pkg/pubchem"
	"github.com/rxindex/medinfo-cli/pkg/rems"
	"github.com/rxindex/medinfo-cli/pkg/rxnav"
)

// OrangeBookSearcher is the Orange Book lookup the aggregator needs.
type OrangeBookSearcher interface {
	Search(ctx context.Context, term string, max int) ([]orangebook.Entry, error)
}

// PurpleBookSearcher is the Purple Book lookup the aggregator needs.
type PurpleBookSearcher interface {
	Search(ctx context.Context, term string, max int) ([]purplebook.Entry, error)
}

// NIOSHMatcher is the hazardous-list lookup the aggregator needs.
type NIOSHMatcher interface {
	Match(ctx context.Context, candidateNames []string, max int) (*niosh.MatchResult, error)
}

// Options select which optional blocks a lookup includes.
type Options struct {
	Recalls      bool
	Shortages    bool
	FAERS        bool
	Classes      bool
	Interactions bool
	Chemistry    bool
	DailyMed     bool
	Images       bool
	OrangeBook   bool
	PurpleBook   bool
	NIOSH        bool
	REMS         bool

	// Profile selects the default section bundle ("standard" or
	// "pharmacist"); Sections overrides it with explicit keys.
	Profile  string
	Sections []string

	// Keywords drive the snippet search over the label text; MaxHits
	// caps the total.
	Keywords []string
	MaxHits  int
}

// EnableAll switches every optional block on.
func (o *Options) EnableAll() {
	o.Recalls = true
	o.Shortages = true
	o.FAERS = true
	o.Classes = true
	o.Interactions = true
	o.Chemistry = true
	o.DailyMed = true
	o.Images = true
	o.OrangeBook = true
	o.PurpleBook = true
	o.NIOSH = true
	o.REMS = true
}

// Section is one extracted label section, in selection order.
type Section struct {
	Key  string `json:"key"`
	Text string `json:"text,omitempty"`
}

// FindBlock holds the keyword search results.
type FindBlock struct {
	Keywords []string `json:"keywords"`
	Hits     []Hit    `json:"hits"`
}

// RecallBlock holds recall enforcement matches and the query that found
// them.
type RecallBlock struct {
	Query   string                `json:"query,omitempty"`
	Results []openfda.Enforcement `json:"results"`
}

// ShortageBlock holds drug shortage matches.
type ShortageBlock struct {
	Query   string             `json:"query,omitempty"`
	Results []openfda.Shortage `json:"results"`
}

// FAERSBlock holds adverse event reaction counts.
type FAERSBlock struct {
	Query     string                `json:"query"`
	Reactions []openfda.CountBucket `json:"reactions"`
	Note      string                `json:"note"`
}

// InteractionBlock holds RxNav interaction results.
type InteractionBlock struct {
	RxCUI   string              `json:"rxcui"`
	Results []rxnav.Interaction `json:"results"`
	Note    string              `json:"note"`
}

// ChemistryBlock holds PubChem compound identity properties.
type ChemistryBlock struct {
	Query      string              `json:"query"`
	Properties *pubchem.Properties `json:"properties"`
	URL        string              `json:"url,omitempty"`
}

// DailyMedBlock holds SPL metadata, version history, and media links.
type DailyMedBlock struct {
	SetID         string                  `json:"setid"`
	Title         string                  `json:"title,omitempty"`
	SPLVersion    string                  `json:"spl_version,omitempty"`
	PublishedDate string                  `json:"published_date,omitempty"`
	History       []dailymed.HistoryEntry `json:"history,omitempty"`
	Media         []dailymed.MediaItem    `json:"media,omitempty"`
	Images        []dailymed.MediaItem    `json:"images,omitempty"`
}

// REMSBlock holds the best-effort REMS program matches. OK false means
// the index could not be used; Reason says why.
type REMSBlock struct {
	OK          bool           `json:"ok"`
	Reason      string         `json:"reason,omitempty"`
	DatabaseURL string         `json:"database_url"`
	InfoURL     string         `json:"info_url"`
	Matches     []rems.Program `json:"matches"`
	Note        string         `json:"note"`
}

// Record is the merged enrichment for one resolved lookup.
type Record struct {
	Sections     []Section           `json:"sections,omitempty"`
	Find         *FindBlock          `json:"find,omitempty"`
	Safety       *SafetyFlags        `json:"safety,omitempty"`
	Recalls      *RecallBlock        `json:"recalls,omitempty"`
	Shortages    *ShortageBlock      `json:"shortages,omitempty"`
	FAERS        *FAERSBlock         `json:"faers,omitempty"`
	Classes      []rxnav.DrugClass   `json:"rxclass,omitempty"`
	Interactions *InteractionBlock   `json:"interactions,omitempty"`
	Chemistry    *ChemistryBlock     `json:"pubchem,omitempty"`
	DailyMed     *DailyMedBlock      `json:"dailymed,omitempty"`
	MedlinePlus  []medlineplus.Topic `json:"medlineplus,omitempty"`
	OrangeBook   []orangebook.Entry  `json:"orangebook,omitempty"`
	PurpleBook   []purplebook.Entry  `json:"purplebook,omitempty"`
	NIOSH        *niosh.MatchResult  `json:"niosh,omitempty"`
	REMS         *REMSBlock          `json:"rems,omitempty"`
	Notes        []string            `json:"notes,omitempty"`
}

// Aggregator fans a resolved identity out to the optional sources. Each
// upstream sits behind its own circuit breaker so a failing service
// stops being hit partway through a batch.
type Aggregator struct {
	fda     openfda.Client
	rx      rxnav.Client
	chem    pubchem.Client
	daily   dailymed.Client
	medline medlineplus.Client
	rems    rems.Client

	orange OrangeBookSearcher
	purple PurpleBookSearcher
	niosh  NIOSHMatcher

	remsDatabaseURL string
	remsInfoURL     string

	limits   config.LookupConfig
	breakers *resilience.ServiceBreakers
}

// Deps bundles the aggregator's collaborators. A nil entry disables the
// corresponding blocks.
type Deps struct {
	OpenFDA     openfda.Client
	RxNav       rxnav.Client
	PubChem     pubchem.Client
	DailyMed    dailymed.Client
	MedlinePlus medlineplus.Client
	REMS        rems.Client
	OrangeBook  OrangeBookSearcher
	PurpleBook  PurpleBookSearcher
	NIOSH       NIOSHMatcher
}

// New creates an Aggregator with per-service circuit breakers.
func New(deps Deps, remsCfg config.REMSConfig, limits config.LookupConfig) *Aggregator {
	return &Aggregator{
		fda:             deps.OpenFDA,
		rx:              deps.RxNav,
		chem:            deps.PubChem,
		daily:           deps.DailyMed,
		medline:         deps.MedlinePlus,
		rems:            deps.REMS,
		orange:          deps.OrangeBook,
		purple:          deps.PurpleBook,
		niosh:           deps.NIOSH,
		remsDatabaseURL: remsCfg.DatabaseURL,
		remsInfoURL:     remsCfg.InfoURL,
		limits:          limits,
		breakers:        resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
}

// Enrich builds the merged record for a resolution. It never fails as a
// whole: each block is attempted independently and failures become
// notes.
func (a *Aggregator) Enrich(ctx context.Context, res *resolve.Resolution, opts Options) *Record {
	rec := &Record{}
	if res == nil {
		return rec
	}

	log := zap.L().With(zap.String("component", "enrich"))

	if res.Label != nil {
		keys := opts.Sections
		if len(keys) == 0 {
			keys = SectionsForProfile(opts.Profile)
		}
		rec.Sections = make([]Section, 0, len(keys))
		for _, key := range keys {
			rec.Sections = append(rec.Sections, Section{Key: key, Text: res.Label.SectionText(key)})
		}
		rec.Safety = BuildSafetyFlags(res.Label)

		if len(opts.Keywords) > 0 {
			maxHits := opts.MaxHits
			if maxHits < 1 {
				maxHits = a.limits.KeywordHitsMax
			}
			rec.Find = &FindBlock{
				Keywords: opts.Keywords,
				Hits:     FindHits(res.Label.TextFields(), opts.Keywords, maxHits),
			}
		}
	}

	if opts.Recalls {
		a.enrichRecalls(ctx, res, rec, log)
	}
	if opts.Shortages {
		a.enrichShortages(ctx, res, rec, log)
	}
	if opts.FAERS {
		a.enrichFAERS(ctx, res, rec, log)
	}
	if opts.Classes {
		a.enrichClasses(ctx, res, rec, log)
	}
	if opts.Interactions {
		a.enrichInteractions(ctx, res, rec, log)
	}
	if opts.Chemistry {
		a.enrichChemistry(ctx, res, rec, log)
	}
	if opts.DailyMed || opts.Images {
		a.enrichDailyMed(ctx, res, rec, opts.Images, log)
	}
	if opts.OrangeBook {
		a.enrichOrangeBook(ctx, res, rec, log)
	}
	if opts.PurpleBook {
		a.enrichPurpleBook(ctx, res, rec, log)
	}
	if opts.NIOSH {
		a.enrichNIOSH(ctx, res, rec, log)
	}
	if opts.REMS {
		a.enrichREMS(ctx, res, rec, log)
	}

	a.enrichMedlinePlus(ctx, res, rec, log)

	return rec
}

// note records a block failure as reader-facing text and logs the cause.
func (rec *Record) note(log *zap.Logger, block string, err error) {
	log.Warn("enrichment block failed", zap.String("block", block), zap.Error(err))
	rec.Notes = append(rec.Notes, fmt.Sprintf("%s lookup failed: %v", block, err))
}

func (a *Aggregator) enrichRecalls(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.fda == nil {
		return
	}
	meta := labelMeta(res)

	var queries []string
	if meta.productNDC != "" {
		queries = append(queries, "openfda.product_ndc:"+openfda.Qstr(meta.productNDC))
	}
	if meta.brand != "" {
		queries = append(queries, "product_description:"+openfda.Qstr(meta.brand))
	}
	if g := firstNonEmpty(meta.generic, res.RxName, res.Input.Query); g != "" {
		queries = append(queries, "product_description:"+openfda.Qstr(g))
	}

	block := &RecallBlock{Results: []openfda.Enforcement{}}
	for _, q := range queries {
		results, err := resilience.ExecuteVal(ctx, a.breakers.Get("openfda"), func(ctx context.Context) ([]openfda.Enforcement, error) {
			return a.fda.EnforcementSearch(ctx, q, a.limits.RecallsMax)
		})
		if err != nil {
			rec.note(log, "Recall", err)
			return
		}
		if len(results) > 0 {
			block.Query = q
			block.Results = results
			break
		}
	}
	rec.Recalls = block
}

func (a *Aggregator) enrichShortages(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.fda == nil {
		return
	}
	meta := labelMeta(res)
	q := res.Input.Query
	generic := firstNonEmpty(meta.generic, q)

	var queries []string
	if generic != "" {
		queries = append(queries, "generic_name:"+openfda.Qstr(generic))
	}
	if meta.brand != "" {
		queries = append(queries, "brand_name:"+openfda.Qstr(meta.brand))
	}
	if q != "" && q != generic {
		queries = append(queries,
			"generic_name:"+openfda.Qstr(q),
			"brand_name:"+openfda.Qstr(q),
		)
	}

	block := &ShortageBlock{Results: []openfda.Shortage{}}
	for _, sq := range queries {
		results, err := resilience.ExecuteVal(ctx, a.breakers.Get("openfda"), func(ctx context.Context) ([]openfda.Shortage, error) {
			return a.fda.ShortageSearch(ctx, sq, a.limits.ShortagesMax)
		})
		if err != nil {
			rec.note(log, "Shortage", err)
			return
		}
		if len(results) > 0 {
			block.Query = sq
			block.Results = results
			break
		}
	}
	rec.Shortages = block
}

func (a *Aggregator) enrichFAERS(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.fda == nil {
		return
	}
	meta := labelMeta(res)
	product := strings.ToUpper(firstNonEmpty(meta.brand, res.RxName, res.Input.Query))
	if product == "" {
		return
	}

	query := "patient.drug.medicinalproduct:" + openfda.Qstr(product)
	buckets, err := resilience.ExecuteVal(ctx, a.breakers.Get("openfda"), func(ctx context.Context) ([]openfda.CountBucket, error) {
		return a.fda.EventCount(ctx, query, "patient.reaction.reactionmeddrapt.exact", a.limits.FAERSMax)
	})
	if err != nil {
		rec.note(log, "FAERS", err)
		return
	}
	rec.FAERS = &FAERSBlock{
		Query:     query,
		Reactions: buckets,
		Note:      "FAERS is reporting data, not causality. Use as a signal only.",
	}
}

func (a *Aggregator) enrichClasses(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.rx == nil {
		return
	}
	if res.RxCUI == "" {
		return
	}
	classes, err := resilience.ExecuteVal(ctx, a.breakers.Get("rxnav"), func(ctx context.Context) ([]rxnav.DrugClass, error) {
		return a.rx.ClassesByRxCUI(ctx, res.RxCUI)
	})
	if err != nil {
		rec.note(log, "RxClass", err)
		return
	}
	if len(classes) > a.limits.RxClassMax {
		classes = classes[:a.limits.RxClassMax]
	}
	rec.Classes = classes
}

func (a *Aggregator) enrichInteractions(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.rx == nil {
		return
	}
	if res.RxCUI == "" {
		return
	}
	inter, err := resilience.ExecuteVal(ctx, a.breakers.Get("rxnav"), func(ctx context.Context) ([]rxnav.Interaction, error) {
		return a.rx.InteractionsByRxCUI(ctx, res.RxCUI)
	})
	if err != nil {
		rec.note(log, "RxNav interactions", err)
		return
	}
	if len(inter) > a.limits.InteractionsMax {
		inter = inter[:a.limits.InteractionsMax]
	}
	rec.Interactions = &InteractionBlock{
		RxCUI:   res.RxCUI,
		Results: inter,
		Note:    "Interactions are informational and may be incomplete. Verify against official labeling and clinical references.",
	}
}

func (a *Aggregator) enrichChemistry(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.chem == nil {
		return
	}
	meta := labelMeta(res)
	// PubChem matches best on an ingredient name, not a brand.
	term := firstNonEmpty(meta.substance, meta.generic, res.RxName, res.Input.Query)
	if term == "" {
		return
	}

	props, err := resilience.ExecuteVal(ctx, a.breakers.Get("pubchem"), func(ctx context.Context) (*pubchem.Properties, error) {
		return a.chem.CompoundProperties(ctx, term)
	})
	if err != nil {
		rec.note(log, "PubChem", err)
		return
	}
	if props == nil {
		rec.Notes = append(rec.Notes, "PubChem lookup returned no match (try a generic ingredient name).")
		return
	}
	block := &ChemistryBlock{Query: term, Properties: props}
	if props.CID != 0 {
		block.URL = fmt.Sprintf("https://pubchem.ncbi.nlm.nih.gov/compound/%d", props.CID)
	}
	rec.Chemistry = block
}

func (a *Aggregator) enrichDailyMed(ctx context.Context, res *resolve.Resolution, rec *Record, wantImages bool, log *zap.Logger) {
	if a.daily == nil {
		return
	}
	if res.SetID == "" {
		rec.Notes = append(rec.Notes, "DailyMed set_id not available for this label.")
		return
	}

	doc, err := resilience.ExecuteVal(ctx, a.breakers.Get("dailymed"), func(ctx context.Context) (*dailymed.Document, error) {
		return a.daily.Media(ctx, res.SetID)
	})
	if err != nil {
		rec.note(log, "DailyMed", err)
		return
	}
	hist, err := resilience.ExecuteVal(ctx, a.breakers.Get("dailymed"), func(ctx context.Context) (*dailymed.Document, error) {
		return a.daily.History(ctx, res.SetID)
	})
	if err != nil {
		rec.note(log, "DailyMed history", err)
	}

	block := &DailyMedBlock{SetID: res.SetID}
	if doc != nil {
		block.Title = doc.Title
		block.SPLVersion = doc.SPLVersion.String()
		block.PublishedDate = doc.PublishedDate
		media := doc.Media
		if len(media) > a.limits.MediaMax {
			media = media[:a.limits.MediaMax]
		}
		block.Media = media
		if wantImages {
			for _, m := range media {
				if strings.HasPrefix(m.MimeType, "image/") {
					block.Images = append(block.Images, m)
				}
			}
		}
	}
	if hist != nil {
		block.History = hist.History
	}
	rec.DailyMed = block
}

func (a *Aggregator) enrichOrangeBook(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.orange == nil {
		return
	}
	meta := labelMeta(res)
	term := firstNonEmpty(meta.generic, res.RxName, res.Input.Query)
	if term == "" {
		return
	}
	entries, err := a.orange.Search(ctx, term, a.limits.OrangeBookMax)
	if err != nil {
		rec.note(log, "Orange Book", err)
		return
	}
	rec.OrangeBook = entries
}

func (a *Aggregator) enrichPurpleBook(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.purple == nil {
		return
	}
	meta := labelMeta(res)
	term := firstNonEmpty(meta.substance, meta.generic, res.RxName, res.Input.Query)
	if term == "" {
		return
	}
	entries, err := a.purple.Search(ctx, term, a.limits.PurpleBookMax)
	if err != nil {
		rec.note(log, "Purple Book", err)
		return
	}
	rec.PurpleBook = entries
}

func (a *Aggregator) enrichNIOSH(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.niosh == nil {
		return
	}
	names := candidateNames(res)
	if len(names) == 0 {
		return
	}
	match, err := a.niosh.Match(ctx, names, a.limits.NIOSHMax)
	if err != nil {
		rec.note(log, "NIOSH hazardous list", err)
		return
	}
	rec.NIOSH = match
}

func (a *Aggregator) enrichREMS(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.rems == nil {
		return
	}
	block := &REMSBlock{
		DatabaseURL: a.remsDatabaseURL,
		InfoURL:     a.remsInfoURL,
		Matches:     []rems.Program{},
		Note:        "Best-effort only. Verify on FDA REMS@FDA.",
	}
	rec.REMS = block

	programs, err := resilience.ExecuteVal(ctx, a.breakers.Get("rems"), func(ctx context.Context) ([]rems.Program, error) {
		return a.rems.FetchPrograms(ctx)
	})
	if err != nil {
		block.Reason = err.Error()
		return
	}

	block.OK = true
	block.Matches = rems.Match(programs, candidateNames(res), a.limits.REMSMax)
	if len(block.Matches) == 0 {
		block.Reason = "no REMS name match"
	}
}

func (a *Aggregator) enrichMedlinePlus(ctx context.Context, res *resolve.Resolution, rec *Record, log *zap.Logger) {
	if a.medline == nil {
		return
	}
	if res.RxCUI == "" {
		return
	}
	topics, err := resilience.ExecuteVal(ctx, a.breakers.Get("medlineplus"), func(ctx context.Context) ([]medlineplus.Topic, error) {
		return a.medline.TopicsByRxCUI(ctx, res.RxCUI)
	})
	if err != nil {
		rec.note(log, "MedlinePlus Connect", err)
		return
	}
	rec.MedlinePlus = topics
}

// labelNames is the compact identity pulled off the selected label for
// building upstream queries.
type labelNames struct {
	brand      string
	generic    string
	substance  string
	productNDC string
}

func labelMeta(res *resolve.Resolution) labelNames {
	if res.Label == nil {
		return labelNames{}
	}
	of := res.Label.OpenFDA
	return labelNames{
		brand:      firstOf(of.BrandName),
		generic:    firstOf(of.GenericName),
		substance:  firstOf(of.SubstanceName),
		productNDC: firstOf(of.ProductNDC),
	}
}

// candidateNames gathers every name the resolution knows for the drug,
// for matching against datasets that index by name.
func candidateNames(res *resolve.Resolution) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(vals ...string) {
		for _, v := range vals {
			folded := resolve.FoldAlnum(v)
			if folded == "" || seen[folded] {
				continue
			}
			seen[folded] = true
			names = append(names, v)
		}
	}

	if res.Label != nil {
		of := res.Label.OpenFDA
		add(of.BrandName...)
		add(of.GenericName...)
		add(of.SubstanceName...)
	}
	add(res.RxName, res.Input.Query)
	return names
}

func firstOf(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
