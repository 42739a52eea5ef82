// Package proposal orchestrates proposal assembly: resolve locations,
// render financial slides, trim redundant cover and closing slides,
// convert to PDF and merge into the final document.
package proposal

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"proposalbot/internal/config"
	"proposalbot/internal/convert"
	"proposalbot/internal/deck"
	"proposalbot/internal/metrics"
	"proposalbot/internal/money"
	"proposalbot/internal/registry"
	"proposalbot/internal/store"
)

// PackageType classifies a generation run for logging and delivery.
type PackageType string

const (
	PackageSingle   PackageType = "single"
	PackageSeparate PackageType = "separate"
	PackageCombined PackageType = "combined"
)

// Request carries one location's terms as they arrive from the caller,
// amounts still in text form.
type Request struct {
	Location      string
	StartDate     string
	Durations     []string
	NetRates      []string
	Spots         int
	ProductionFee string
}

// Result is the set of files to deliver plus the data logged about them.
type Result struct {
	PackageType PackageType
	PDFPath     string
	DeckPaths   []string
	Locations   []string
	Totals      []string
}

// ValidationError marks user-correctable input problems; the bot reports
// these verbatim instead of apologizing.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Orchestrator wires the registry, converter and log store together.
type Orchestrator struct {
	registry  *registry.Registry
	converter *convert.Service
	store     *store.Store
	workDir   string
	now       func() time.Time
}

func New(reg *registry.Registry, conv *convert.Service, st *store.Store, workDir string) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		converter: conv,
		store:     st,
		workDir:   workDir,
		now:       config.Now,
	}
}

// resolved is a validated request bound to its location and parsed amounts.
type resolved struct {
	req           Request
	loc           *registry.Location
	netRates      []decimal.Decimal
	productionFee *decimal.Decimal
}

func (o *Orchestrator) resolve(requests []Request) ([]resolved, error) {
	out := make([]resolved, 0, len(requests))
	for i, req := range requests {
		loc, err := o.registry.Lookup(req.Location)
		if err != nil {
			return nil, validationf("proposal %d: %v", i+1, err)
		}
		if len(req.Durations) == 0 {
			return nil, validationf("proposal %d: no durations given", i+1)
		}
		r := resolved{req: req, loc: loc}
		for _, raw := range req.NetRates {
			rate, err := money.ParseAED(raw)
			if err != nil {
				return nil, validationf("proposal %d: %v", i+1, err)
			}
			r.netRates = append(r.netRates, rate)
		}
		if req.ProductionFee != "" {
			fee, err := money.ParseAED(req.ProductionFee)
			if err != nil {
				return nil, validationf("proposal %d: production fee: %v", i+1, err)
			}
			r.productionFee = &fee
		}
		out = append(out, r)
	}
	return out, nil
}

// Process builds a separate-decks package: one financial slide per
// location, trimmed copies converted, PDFs merged in request order.
func (o *Orchestrator) Process(ctx context.Context, requests []Request, submitter, client string) (*Result, error) {
	if len(requests) == 0 {
		return nil, validationf("no proposals requested")
	}
	for i, req := range requests {
		if len(req.Durations) != len(req.NetRates) {
			return nil, validationf("proposal %d: %d durations but %d rates", i+1, len(req.Durations), len(req.NetRates))
		}
	}
	rs, err := o.resolve(requests)
	if err != nil {
		metrics.IncFailed()
		return nil, err
	}

	pkg := PackageSeparate
	if len(rs) == 1 {
		pkg = PackageSingle
	}
	now := o.now()

	decks := make([]string, len(rs))
	pdfs := make([]string, len(rs))
	fins := make([]deck.Financials, len(rs))

	g, gctx := errgroup.WithContext(ctx)
	for i := range rs {
		i := i
		g.Go(func() error {
			r := rs[i]
			deckPath, fin, err := deck.RenderFinancialSlide(r.loc.TemplatePath, deck.Terms{
				Location:      r.loc,
				StartDate:     r.req.StartDate,
				Durations:     r.req.Durations,
				NetRates:      r.netRates,
				Spots:         r.req.Spots,
				ProductionFee: r.productionFee,
			}, o.workDir, now)
			if err != nil {
				return fmt.Errorf("render %s: %w", r.loc.DisplayName, err)
			}
			convertSrc := deckPath
			if len(rs) > 1 {
				convertSrc, err = o.trimmedCopy(deckPath, i > 0, i < len(rs)-1)
				if err != nil {
					return err
				}
			}
			pdfPath, err := o.convertDeck(gctx, convertSrc)
			if err != nil {
				return err
			}
			decks[i], pdfs[i], fins[i] = deckPath, pdfPath, fin
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.IncFailed()
		return nil, err
	}

	result := &Result{PackageType: pkg, DeckPaths: decks}
	for i, r := range rs {
		result.Locations = append(result.Locations, r.loc.DisplayName)
		result.Totals = append(result.Totals, fins[i].TotalTexts()...)
	}

	if len(pdfs) == 1 {
		result.PDFPath = pdfs[0]
	} else {
		if err := o.merge(pdfs, result); err != nil {
			metrics.IncFailed()
			return nil, err
		}
	}

	o.logResult(ctx, result, submitter, client, now)
	metrics.IncSucceeded()
	return result, nil
}

// ProcessCombined builds a combined package: one pooled rate across all
// locations, the shared slide rendered into the final location's deck.
func (o *Orchestrator) ProcessCombined(ctx context.Context, requests []Request, combinedRate, submitter, client string) (*Result, error) {
	if len(requests) < 2 {
		return nil, validationf("a combined proposal needs at least 2 locations, got %d", len(requests))
	}
	if strings.TrimSpace(combinedRate) == "" {
		return nil, validationf("a combined proposal needs one combined net rate")
	}
	rate, err := money.ParseAED(combinedRate)
	if err != nil {
		return nil, validationf("combined rate: %v", err)
	}
	rs, err := o.resolve(requests)
	if err != nil {
		metrics.IncFailed()
		return nil, err
	}
	now := o.now()

	terms := deck.CombinedTerms{CombinedRate: rate}
	for _, r := range rs {
		terms.Locations = append(terms.Locations, r.loc)
		terms.StartDates = append(terms.StartDates, r.req.StartDate)
		terms.Durations = append(terms.Durations, strings.Join(r.req.Durations, " / "))
		terms.Spots = append(terms.Spots, r.req.Spots)
		terms.ProductionFees = append(terms.ProductionFees, r.productionFee)
	}

	last := len(rs) - 1
	lastDeck, fin, err := deck.RenderCombinedSlide(rs[last].loc.TemplatePath, terms, o.workDir, now)
	if err != nil {
		metrics.IncFailed()
		return nil, fmt.Errorf("render %s: %w", rs[last].loc.DisplayName, err)
	}

	decks := make([]string, len(rs))
	decks[last] = lastDeck
	pdfs := make([]string, len(rs))

	g, gctx := errgroup.WithContext(ctx)
	for i := range rs {
		i := i
		g.Go(func() error {
			if decks[i] == "" {
				copyPath, err := o.copyTemplate(rs[i].loc.TemplatePath)
				if err != nil {
					return err
				}
				decks[i] = copyPath
			}
			trimmed, err := o.trimmedCopy(decks[i], i > 0, i < len(rs)-1)
			if err != nil {
				return err
			}
			pdfPath, err := o.convertDeck(gctx, trimmed)
			if err != nil {
				return err
			}
			pdfs[i] = pdfPath
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.IncFailed()
		return nil, err
	}

	result := &Result{
		PackageType: PackageCombined,
		Totals:      []string{money.FormatAED(fin.Total)},
	}
	for _, r := range rs {
		result.Locations = append(result.Locations, r.loc.DisplayName)
	}
	if err := o.merge(pdfs, result); err != nil {
		metrics.IncFailed()
		return nil, err
	}

	o.logResult(ctx, result, submitter, client, now)
	metrics.IncSucceeded()
	return result, nil
}

// convertDeck runs one gated conversion with the active-conversion gauge
// held for its duration.
func (o *Orchestrator) convertDeck(ctx context.Context, deckPath string) (string, error) {
	metrics.ConversionStarted()
	defer metrics.ConversionFinished()
	return o.converter.Convert(ctx, deckPath, o.workDir)
}

// trimmedCopy writes a copy of deckPath with its redundant cover and/or
// closing slide removed, so shared pages appear once in the merged
// document. The deck delivered to the user stays complete.
func (o *Orchestrator) trimmedCopy(deckPath string, dropFirst, dropLast bool) (string, error) {
	d, err := deck.Open(deckPath)
	if err != nil {
		return "", err
	}
	if err := d.DropSlides(dropFirst, dropLast); err != nil {
		return "", err
	}
	trimmed := filepath.Join(o.workDir, fmt.Sprintf("trim-%s.pptx", uuid.NewString()))
	if err := d.Save(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// merge concatenates the per-deck PDFs in request order into the final
// proposal document.
func (o *Orchestrator) merge(pdfs []string, result *Result) error {
	merged := filepath.Join(o.workDir, fmt.Sprintf("proposal-%s.pdf", uuid.NewString()))
	if err := convert.Concatenate(pdfs, merged); err != nil {
		return err
	}
	result.PDFPath = merged
	return nil
}

func (o *Orchestrator) copyTemplate(templatePath string) (string, error) {
	src, err := os.Open(templatePath)
	if err != nil {
		return "", err
	}
	defer src.Close()
	dstPath := filepath.Join(o.workDir, fmt.Sprintf("deck-%s.pptx", uuid.NewString()))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return dstPath, dst.Close()
}

// logResult records the run; a log failure never fails the proposal.
func (o *Orchestrator) logResult(ctx context.Context, result *Result, submitter, client string, now time.Time) {
	if o.store == nil {
		return
	}
	err := o.store.LogProposal(ctx, &store.Entry{
		SubmittedBy:   submitter,
		ClientName:    client,
		DateGenerated: now,
		PackageType:   string(result.PackageType),
		Locations:     strings.Join(result.Locations, ", "),
		TotalAmount:   strings.Join(result.Totals, ", "),
	})
	if err != nil {
		log.Printf("proposal: log write failed: %v", err)
	}
}
