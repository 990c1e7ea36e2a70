package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// NoResultsMessage is the fixed sentinel returned when there is nothing to
// analyze.
const NoResultsMessage = "No se encontraron productos para analizar."

// maxRanked caps how many analyzed products are returned.
const maxRanked = 6

// maxReasons caps the pros and cons lists per product.
const maxReasons = 3

// Engine scores and ranks raw shopping listings against a category profile.
// Each analysis call is a pure in-memory computation: no I/O, no shared
// mutable state, safe for concurrent use once the profile store is built.
type Engine struct {
	logger *observability.Logger
	store  *ProfileStore
	now    func() time.Time
}

// NewEngine creates an engine backed by the given profile store.
func NewEngine(logger *observability.Logger, store *ProfileStore) *Engine {
	return &Engine{
		logger: logger.WithComponent("analysis"),
		store:  store,
		now:    time.Now,
	}
}

// scoredListing wraps a listing with its normalized fields and accumulated
// score. Lifecycle is one Analyze call.
type scoredListing struct {
	listing        catalog.Listing
	titleLower     string
	brandLower     string
	numericPrice   float64
	originalPrice  float64
	rating         float64
	reviews        int
	specs          []string
	score          float64
	pros           []string
	cons           []string
}

// factorResult is the outcome of one named scoring step before weighting.
type factorResult struct {
	delta float64
	pros  []string
	cons  []string
}

// Analyze scores every listing against the profile for category (detected
// from the query when category is empty or "default"), ranks them, and
// returns the top entries with generated pros/cons and a final
// recommendation sentence.
//
// It never returns an error: empty input yields the documented sentinel and
// malformed fields degrade to neutral defaults.
func (e *Engine) Analyze(query string, listings []catalog.Listing, structured []catalog.StructuredListing, category string) catalog.Analysis {
	if len(listings) == 0 {
		return catalog.Analysis{
			ProductAnalyses:     []catalog.ProductAnalysis{},
			FinalRecommendation: NoResultsMessage,
		}
	}

	if category == "" || category == DefaultCategory {
		category = DetectCategory(query)
	}
	profile := e.store.Profile(category)

	specsByID := make(map[string][]string, len(structured))
	for _, s := range structured {
		specsByID[s.ProductID] = s.Specs
	}

	scored := make([]*scoredListing, 0, len(listings))
	var priceSum float64
	var priceCount int
	for _, l := range listings {
		s := &scoredListing{
			listing:       l,
			titleLower:    strings.ToLower(l.Title),
			brandLower:    strings.ToLower(strings.TrimSpace(l.Brand)),
			numericPrice:  ParsePrice(l.Price),
			originalPrice: ParsePrice(l.ExtractedPrice),
			rating:        ParseRating(l.Rating),
			reviews:       ParseReviews(l.Reviews),
			specs:         specsByID[l.ProductID],
		}
		if s.numericPrice > 0 {
			priceSum += s.numericPrice
			priceCount++
		}
		scored = append(scored, s)
	}

	var averagePrice float64
	if priceCount > 0 {
		averagePrice = priceSum / float64(priceCount)
	}

	currentYear := e.now().Year()
	for _, s := range scored {
		e.scoreOne(s, profile, query, averagePrice, currentYear)
	}

	// Stable sort: listings with equal scores keep their input order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	top := scored
	if len(top) > maxRanked {
		top = top[:maxRanked]
	}

	analyses := make([]catalog.ProductAnalysis, 0, len(top))
	for i, s := range top {
		analyses = append(analyses, catalog.ProductAnalysis{
			ProductID:     s.listing.ProductID,
			Pros:          s.pros,
			Cons:          s.cons,
			IsRecommended: i == 0,
		})
	}

	e.logger.Debug().
		Str("query", query).
		Str("category", category).
		Int("listings", len(listings)).
		Float64("average_price", averagePrice).
		Float64("top_score", top[0].score).
		Msg("Local analysis completed")

	return catalog.Analysis{
		ProductAnalyses:     analyses,
		FinalRecommendation: buildRecommendation(query, top[0]),
	}
}

// scoreOne runs the eight weighted factor steps over a single listing.
// Factor order is fixed: it determines pros/cons generation order.
func (e *Engine) scoreOne(s *scoredListing, profile *CategoryProfile, query string, averagePrice float64, currentYear int) {
	steps := []struct {
		weight string
		run    func() factorResult
	}{
		{"relevance", func() factorResult { return relevanceFactor(s, query) }},
		{"quality", func() factorResult { return qualityFactor(s) }},
		{"price", func() factorResult { return priceFactor(s, averagePrice) }},
		{"brand", func() factorResult { return brandFactor(s, profile) }},
		{"recency", func() factorResult { return recencyFactor(s, currentYear) }},
		{"discount", func() factorResult { return discountFactor(s) }},
		{"completeness", func() factorResult { return completenessFactor(s) }},
		{"keyword", func() factorResult { return keywordFactor(s, profile) }},
	}

	for _, step := range steps {
		res := step.run()
		s.score += res.delta * profile.Weight(step.weight)
		s.pros = append(s.pros, res.pros...)
		s.cons = append(s.cons, res.cons...)
	}

	s.pros = dedupeCap(s.pros, maxReasons)
	s.cons = dedupeCap(s.cons, maxReasons)
}

// relevanceFactor rewards query tokens found in the title.
func relevanceFactor(s *scoredListing, query string) factorResult {
	var res factorResult
	matches := 0
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if len(token) <= 2 {
			continue
		}
		if strings.Contains(s.titleLower, token) {
			matches++
		}
	}

	res.delta = float64(matches) * 10
	if matches >= 2 {
		res.pros = append(res.pros, "Título relevante")
	}
	return res
}

// qualityFactor applies the tiered rating and review-count ladders.
func qualityFactor(s *scoredListing) factorResult {
	var res factorResult

	switch {
	case s.rating >= 4.5:
		res.delta += 50
		res.pros = append(res.pros, fmt.Sprintf("Excelente valoración (%.1f⭐)", s.rating))
	case s.rating >= 4.0:
		res.delta += 30
		res.pros = append(res.pros, fmt.Sprintf("Valoración (%.1f⭐)", s.rating))
	case s.rating >= 3.5:
		res.delta += 10
	case s.rating > 0:
		res.delta -= 20
		res.cons = append(res.cons, fmt.Sprintf("Valoración baja (%.1f⭐)", s.rating))
	default:
		res.delta -= 30
		res.cons = append(res.cons, "Sin valoración")
	}

	switch {
	case s.reviews > 1000:
		res.delta += 30
		if s.rating < 4.0 {
			res.pros = append(res.pros, fmt.Sprintf("Muy reseñado (%d reseñas)", s.reviews))
		}
	case s.reviews > 100:
		res.delta += 20
	case s.reviews > 10:
		res.delta += 10
	case s.rating > 0:
		// A rating backed by almost no reviews is weak evidence.
		res.delta -= 10
		res.cons = append(res.cons, "Pocas reseñas")
	}

	return res
}

// priceFactor compares the listing price against the batch average.
func priceFactor(s *scoredListing, averagePrice float64) factorResult {
	var res factorResult

	if s.numericPrice <= 0 {
		res.delta -= 15
		res.cons = append(res.cons, "Sin precio")
		return res
	}
	if averagePrice <= 0 {
		return res
	}

	ratio := s.numericPrice / averagePrice
	switch {
	case ratio <= 0.8:
		res.delta += 40
		res.pros = append(res.pros, "Precio competitivo")
	case ratio <= 1.05:
		res.delta += 15
		res.pros = append(res.pros, "Precio razonable")
	case ratio <= 1.3:
		res.delta -= 10
		res.cons = append(res.cons, "Precio elevado")
	default:
		res.delta -= 30
		res.cons = append(res.cons, "Precio muy alto")
	}
	return res
}

// brandFactor looks up the listing brand in the profile table.
func brandFactor(s *scoredListing, profile *CategoryProfile) factorResult {
	var res factorResult
	if s.brandLower == "" {
		return res
	}

	bonus, ok := profile.Brands[s.brandLower]
	if !ok {
		return res
	}

	res.delta = float64(bonus)
	if bonus > 0 {
		res.pros = append(res.pros, fmt.Sprintf("Marca: %s", s.listing.Brand))
	} else if bonus < 0 {
		res.cons = append(res.cons, fmt.Sprintf("Marca poco valorada: %s", s.listing.Brand))
	}
	return res
}

// recencyFactor rewards titles mentioning the current or previous year.
func recencyFactor(s *scoredListing, currentYear int) factorResult {
	var res factorResult
	if strings.Contains(s.titleLower, strconv.Itoa(currentYear)) {
		res.delta = 20
		res.pros = append(res.pros, "Modelo reciente")
	} else if strings.Contains(s.titleLower, strconv.Itoa(currentYear-1)) {
		res.delta = 10
	}
	return res
}

// discountFactor rewards a valid pre-discount price above the current one.
func discountFactor(s *scoredListing) factorResult {
	var res factorResult
	if s.originalPrice <= 0 || s.numericPrice <= 0 || s.originalPrice <= s.numericPrice {
		return res
	}

	pct := (1 - s.numericPrice/s.originalPrice) * 100
	switch {
	case pct >= 25:
		res.delta = 35
		res.pros = append(res.pros, fmt.Sprintf("¡Buena oferta! (%.0f%% off)", pct))
	case pct >= 15:
		res.delta = 15
		res.pros = append(res.pros, fmt.Sprintf("Oferta (%.0f%% off)", pct))
	}
	return res
}

// completenessFactor penalizes listings missing key data. The delta is
// negative and weighted like any other factor.
func completenessFactor(s *scoredListing) factorResult {
	var res factorResult
	if s.rating == 0 && s.reviews == 0 {
		res.delta -= 20
		res.cons = append(res.cons, "Datos incompletos")
	}
	if s.numericPrice <= 0 {
		res.delta -= 10
	}
	return res
}

// keywordFactor scans title and extracted specs against the profile keyword
// tables using whole-word matching.
func keywordFactor(s *scoredListing, profile *CategoryProfile) factorResult {
	var res factorResult

	words := tokenSet(s.titleLower)
	for _, spec := range s.specs {
		for w := range tokenSet(strings.ToLower(spec)) {
			words[w] = struct{}{}
		}
	}

	var positive float64
	for kw, points := range profile.PositiveKeywords {
		if matchKeyword(words, s.titleLower, kw) {
			res.delta += float64(points)
			positive += float64(points)
		}
	}
	for kw, points := range profile.NegativeKeywords {
		if matchKeyword(words, s.titleLower, kw) {
			// Negative keywords carry negative point values already.
			res.delta += float64(points)
			res.cons = append(res.cons, fmt.Sprintf("Detalle a revisar: %s", kw))
		}
	}

	if positive >= 15 {
		res.pros = append(res.pros, "Características destacadas")
	}
	return res
}

// matchKeyword matches single-word keywords against the token set and
// multi-word keywords by substring.
func matchKeyword(words map[string]struct{}, text, keyword string) bool {
	if strings.ContainsRune(keyword, ' ') {
		return strings.Contains(text, keyword)
	}
	_, ok := words[keyword]
	return ok
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r >= 0x80)
	}) {
		set[w] = struct{}{}
	}
	return set
}

// buildRecommendation synthesizes the final sentence from the winner.
func buildRecommendation(query string, best *scoredListing) string {
	reason := "su puntaje general"
	if len(best.pros) > 0 {
		reason = strings.ToLower(best.pros[0])
	}

	sentence := fmt.Sprintf("Considerando '%s', te recomiendo '%s' principalmente por %s.",
		query, best.listing.Title, reason)

	if len(best.cons) > 0 {
		sentence += fmt.Sprintf(" Tené en cuenta que %s.", strings.ToLower(best.cons[0]))
	}
	return sentence
}

// dedupeCap removes duplicates preserving order and caps the list.
func dedupeCap(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, limit)
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
