package ualberta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// Code is the institution code the adapter registers under by default.
	Code = "ualberta"
	// DefaultBaseURL is the catalogue host.
	DefaultBaseURL = "https://apps.ualberta.ca"
	// DefaultExamURL is the exam schedule spreadsheet feed.
	DefaultExamURL = "https://www.ualberta.ca/api/datalist/spreadsheet/1kM0k0LenS9Z9LFH6F9qfbr7lyThRa0phTadDCs_MA-c/Sheet1"
	// DefaultRequestInterval paces catalogue requests.
	DefaultRequestInterval = 2 * time.Second
	// DefaultFetchTimeout bounds one fetch attempt. A course fetch visits
	// every faculty and subject page at DefaultRequestInterval, which is
	// several hundred paced requests.
	DefaultFetchTimeout = 30 * time.Minute

	// EndpointCatalogue names the catalogue index endpoint.
	EndpointCatalogue = "catalogue"
	// EndpointExams names the exam schedule endpoint.
	EndpointExams = "exams"
)

// Institution returns the default configuration for the University of Alberta.
func Institution() source.Institution {
	return source.Institution{
		Code:            Code,
		Name:            "University of Alberta",
		Adapter:         Code,
		BaseURL:         DefaultBaseURL,
		RequestInterval: DefaultRequestInterval,
		FetchTimeout:    DefaultFetchTimeout,
		Country:         "Canada",
		Region:          "Alberta",
		Website:         "https://www.ualberta.ca",
	}
}

// Adapter scrapes the University of Alberta public catalogue and exam
// schedule. It always returns the full dataset; incremental hints are ignored
// because neither upstream exposes modification times.
type Adapter struct {
	client    *source.Client
	catalogue string
	exams     string
	logger    *zap.Logger
	now       func() time.Time
}

// WithDefaults fills the zero values of a configured institution from
// Institution().
func WithDefaults(inst source.Institution) source.Institution {
	def := Institution()
	if inst.Name == "" {
		inst.Name = def.Name
	}
	if inst.BaseURL == "" {
		inst.BaseURL = def.BaseURL
	}
	if inst.RequestInterval == 0 {
		inst.RequestInterval = def.RequestInterval
	}
	if inst.FetchTimeout == 0 {
		inst.FetchTimeout = def.FetchTimeout
	}
	if inst.Country == "" {
		inst.Country = def.Country
	}
	if inst.Region == "" {
		inst.Region = def.Region
	}
	if inst.Website == "" {
		inst.Website = def.Website
	}
	return inst
}

// New creates an adapter for inst. Zero values fall back to the defaults of
// Institution().
func New(inst source.Institution, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	inst = WithDefaults(inst)

	client, err := source.NewClient(source.ClientConfig{
		BaseURL:         inst.BaseURL,
		RequestInterval: inst.RequestInterval,
		Burst:           inst.Burst,
		UserAgent:       inst.Option("user_agent", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("ualberta: %w", err)
	}

	return &Adapter{
		client:    client,
		catalogue: inst.Endpoint(EndpointCatalogue, "/catalogue"),
		exams:     inst.Endpoint(EndpointExams, DefaultExamURL),
		logger:    logger.With(zap.String("institution", inst.Code)),
		now:       time.Now,
	}, nil
}

// Categories lists the categories the adapter serves. Instructors are
// behind a login upstream and are not available.
func (a *Adapter) Categories() []catalog.Category {
	return []catalog.Category{
		catalog.CategoryFaculty,
		catalog.CategorySubject,
		catalog.CategoryTerm,
		catalog.CategoryCourse,
		catalog.CategorySection,
		catalog.CategoryExam,
	}
}

// Fetch returns the records of one category.
func (a *Adapter) Fetch(ctx context.Context, category catalog.Category, _ source.Hint) source.Sequence {
	switch category {
	case catalog.CategoryFaculty:
		return a.faculties(ctx)
	case catalog.CategorySubject:
		return a.subjects(ctx)
	case catalog.CategoryCourse:
		return a.courses(ctx)
	case catalog.CategoryTerm, catalog.CategorySection, catalog.CategoryExam:
		return a.examRecords(ctx, category)
	default:
		return source.Failed(fmt.Errorf("ualberta %s: %w", category, source.ErrUnsupportedCategory))
	}
}

// document fetches ref and parses it as HTML.
func (a *Adapter) document(ctx context.Context, ref string) (*goquery.Document, error) {
	a.logger.Debug("Fetching page", zap.String("ref", ref))
	body, err := a.client.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, source.NewFetchError(source.KindBadResponse, ref, fmt.Errorf("invalid html: %w", err))
	}
	return doc, nil
}

// skippable reports whether a failed sub-page should be skipped instead of
// aborting the whole fetch. Only permanent upstream answers qualify.
func skippable(err error) bool {
	var fe *source.FetchError
	return errors.As(err, &fe) && !fe.Retryable()
}
