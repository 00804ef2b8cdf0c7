// Package harvest provides the campaign orchestration: it walks half-year
// windows and venues, searches the archive, fetches and parses matching
// pages, and persists each extracted passage exactly once while keeping a
// resumable checkpoint.
package harvest

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/Brandonf2022/touringbot"
	"github.com/Brandonf2022/touringbot/bloom"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Defaults applied when the corresponding Harvester field is zero.
const (
	DefaultWindowSize  = 5
	DefaultBatchSize   = 100
	DefaultConcurrency = 1
)

// DefaultSearchRetry is used when Harvester.SearchRetry has no attempts set.
var DefaultSearchRetry = touringbot.RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 5 * time.Second,
	Factor:         2,
}

// Bloom filter sizing for identities seen in one run.
const (
	seenExpectedIDs       = 100000
	seenFalsePositiveRate = 0.001
)

// Harvester orchestrates a harvest campaign.
type Harvester struct {
	Search      touringbot.SearchService
	Fetcher     touringbot.Fetcher
	Resolver    touringbot.ManifestResolver
	Parser      touringbot.PageParser
	Records     touringbot.RecordService
	Checkpoints touringbot.CheckpointStore
	Logger      *slog.Logger

	// CollectionID restricts searches to one archive collection.
	CollectionID string

	// WindowSize is the number of sibling blocks kept on each side of a
	// match. Zero means DefaultWindowSize; a negative value keeps the
	// matched block only.
	WindowSize int

	// BatchSize is the number of records written per store transaction.
	BatchSize int

	// Concurrency is the number of matches fetched and parsed in parallel
	// within one venue. Store writes always happen on one goroutine.
	Concurrency int

	// SearchPageSize pages through search hits. Zero issues one request
	// per venue and takes whatever the server returns.
	SearchPageSize int

	// SearchRetry controls retries of transient search failures.
	SearchRetry touringbot.RetryPolicy

	// WindowPause is waited between half-year windows.
	WindowPause time.Duration

	// RunID tags every record written by this harvester. A random UUID is
	// used if empty.
	RunID string

	// Sleep overrides waiting for WindowPause and search backoff.
	Sleep touringbot.SleepFunc
}

// Campaign describes the work of a harvest run: every venue in every
// half-year window of [StartYear, StartYear+Years).
type Campaign struct {
	StartYear int
	Years     int
	Venues    []string
}

// Validate returns ECONFIG if the campaign describes no work.
func (c *Campaign) Validate() error {
	if c.Years < 1 {
		return touringbot.Errorf(touringbot.ECONFIG, "campaign must cover at least one year")
	}
	if len(c.Venues) == 0 {
		return touringbot.Errorf(touringbot.ECONFIG, "campaign has no venues")
	}
	return nil
}

// Result holds the outcome of a harvest.
type Result struct {
	Venues     int
	Skipped    int
	Matches    int
	Pages      int
	Candidates int
	Duplicates int
	Inserted   int
	Failed     int
}

func (r *Result) add(o *Result) {
	if o == nil {
		return
	}
	r.Venues += o.Venues
	r.Skipped += o.Skipped
	r.Matches += o.Matches
	r.Pages += o.Pages
	r.Candidates += o.Candidates
	r.Duplicates += o.Duplicates
	r.Inserted += o.Inserted
	r.Failed += o.Failed
}

// ProgressEvent reports progress during a harvest.
type ProgressEvent struct {
	Type   ProgressType
	Window touringbot.Window
	Venue  string
	Index  int
	Total  int
	URL    string
	Result *Result
	Error  error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	VenueStarted ProgressType = iota
	VenueCompleted
	VenueSkipped
	PageFailed
	WindowCompleted
)

func (t ProgressType) String() string {
	switch t {
	case VenueStarted:
		return "venue started"
	case VenueCompleted:
		return "venue completed"
	case VenueSkipped:
		return "venue skipped"
	case PageFailed:
		return "page failed"
	case WindowCompleted:
		return "window completed"
	}
	return "unknown"
}

// ProgressFunc is a callback for reporting harvest progress. It is always
// called from the goroutine running the harvest.
type ProgressFunc func(event ProgressEvent)

// run holds the state shared by every venue of one harvest.
type run struct {
	id       string
	seen     *bloom.Filter
	progress ProgressFunc
}

func (r *run) emit(e ProgressEvent) {
	if r.progress != nil {
		r.progress(e)
	}
}

func (h *Harvester) newRun(progress ProgressFunc) *run {
	id := h.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return &run{
		id:       id,
		seen:     bloom.NewFilter(seenExpectedIDs, seenFalsePositiveRate),
		progress: progress,
	}
}

// Run harvests the campaign, resuming from the stored checkpoint. The
// checkpoint is advanced after every venue and every window. A fatal error
// saves the checkpoint at the failing venue and is returned together with
// the partial result.
func (h *Harvester) Run(ctx context.Context, c Campaign, progress ProgressFunc) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log := h.logger()

	windows := touringbot.Windows(c.StartYear, c.Years)
	startWindow, startIndex, fresh, err := h.resumePosition(windows, len(c.Venues))
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := h.Checkpoints.Save(&touringbot.Checkpoint{Year: windows[0].Year, Half: windows[0].Half}); err != nil {
			return nil, err
		}
	}

	r := h.newRun(progress)
	result := &Result{}
	log.Info("harvest started", "run", r.id, "windows", len(windows)-startWindow, "venues", len(c.Venues))

	for wi := startWindow; wi < len(windows); wi++ {
		w := windows[wi]
		first := 0
		if wi == startWindow {
			first = startIndex
		}

		for i := first; i < len(c.Venues); i++ {
			venue := c.Venues[i]
			r.emit(ProgressEvent{Type: VenueStarted, Window: w, Venue: venue, Index: i, Total: len(c.Venues)})

			vr, err := h.harvestVenue(ctx, r, w, venue, i, len(c.Venues))
			result.add(vr)
			if err != nil {
				log.Error("harvest stopped", "window", w.String(), "venue", venue, "index", i, "err", err)
				saveErr := h.Checkpoints.Save(&touringbot.Checkpoint{Year: w.Year, Half: w.Half, Index: i})
				return result, errors.Join(err, saveErr)
			}

			if err := h.Checkpoints.Save(&touringbot.Checkpoint{Year: w.Year, Half: w.Half, Index: i + 1}); err != nil {
				return result, err
			}
		}

		next := w.Next()
		if err := h.Checkpoints.Save(&touringbot.Checkpoint{Year: next.Year, Half: next.Half, Index: 0}); err != nil {
			return result, err
		}
		r.emit(ProgressEvent{Type: WindowCompleted, Window: w, Total: len(c.Venues), Result: result})

		if wi < len(windows)-1 && h.WindowPause > 0 {
			log.Debug("pausing between windows", "duration", h.WindowPause)
			if err := h.sleep(ctx, h.WindowPause); err != nil {
				return result, err
			}
		}
	}

	log.Info("harvest finished", "run", r.id, "inserted", result.Inserted, "candidates", result.Candidates)
	return result, nil
}

// resumePosition maps the stored checkpoint onto the campaign windows. A
// corrupt checkpoint has already been removed by the store and counts as
// no checkpoint. A position past the last window returns len(windows).
// fresh reports that no usable checkpoint exists and one must be created.
func (h *Harvester) resumePosition(windows []touringbot.Window, venues int) (start, index int, fresh bool, err error) {
	cp, err := h.Checkpoints.Load()
	if touringbot.ErrorCode(err) == touringbot.ECHECKPOINT {
		h.logger().Warn("discarded invalid checkpoint", "err", err)
		return 0, 0, true, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	if cp == nil {
		return 0, 0, true, nil
	}

	at := touringbot.Window{Year: cp.Year, Half: cp.Half}
	if at.Before(windows[0]) {
		h.logger().Warn("checkpoint predates campaign, starting over", "checkpoint", cp.String())
		return 0, 0, true, nil
	}
	for i, w := range windows {
		if w == at {
			h.logger().Info("resuming from checkpoint", "checkpoint", cp.String())
			return i, min(cp.Index, venues), false, nil
		}
	}
	h.logger().Info("campaign already complete", "checkpoint", cp.String())
	return len(windows), 0, false, nil
}

// HarvestVenue harvests one venue in one window without touching the
// checkpoint.
func (h *Harvester) HarvestVenue(ctx context.Context, w touringbot.Window, venue string) (*Result, error) {
	return h.harvestVenue(ctx, h.newRun(nil), w, venue, 0, 1)
}

// matchResult is the outcome of fetching and parsing one search match.
type matchResult struct {
	passages []pagePassage
	failures []pageFailure
	pages    int
	err      error
}

type pageFailure struct {
	url string
	err error
}

type pagePassage struct {
	touringbot.Passage
	sourceRef string
}

func (h *Harvester) harvestVenue(ctx context.Context, r *run, w touringbot.Window, venue string, index, total int) (*Result, error) {
	log := h.logger().With("window", w.String(), "venue", venue)
	result := &Result{Venues: 1}

	matches, err := h.searchAll(ctx, w, venue)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		log.Warn("search failed, skipping venue", "err", err)
		result.Skipped++
		r.emit(ProgressEvent{Type: VenueSkipped, Window: w, Venue: venue, Index: index, Total: total, Error: err})
		return result, nil
	}
	result.Matches = len(matches)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := h.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan matchResult)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	// waitErr is written before resultCh is closed and read after it drains.
	var waitErr error
	go func() {
		for _, m := range matches {
			g.Go(func() error {
				mr := h.processMatch(gctx, venue, m)
				select {
				case resultCh <- mr:
				case <-gctx.Done():
				}
				return mr.err
			})
		}
		waitErr = g.Wait()
		close(resultCh)
	}()

	b := &batcher{h: h, run: r, venue: venue, result: result, pending: make(map[string]bool)}
	var fatal error
	for mr := range resultCh {
		result.Pages += mr.pages
		result.Failed += len(mr.failures)
		for _, pf := range mr.failures {
			r.emit(ProgressEvent{Type: PageFailed, Window: w, Venue: venue, URL: pf.url, Error: pf.err})
		}
		if mr.err != nil {
			fatal = mr.err
			break
		}
		for _, p := range mr.passages {
			if err := b.add(ctx, p); err != nil {
				fatal = err
				break
			}
		}
		if fatal != nil {
			break
		}
	}
	if fatal != nil {
		cancel()
		for range resultCh {
		}
		return result, fatal
	}
	if waitErr != nil {
		return result, waitErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := b.flush(ctx); err != nil {
		return result, err
	}

	log.Info("venue harvested", "matches", result.Matches, "pages", result.Pages,
		"candidates", result.Candidates, "inserted", result.Inserted)
	r.emit(ProgressEvent{Type: VenueCompleted, Window: w, Venue: venue, Index: index, Total: total, Result: result})
	return result, nil
}

// searchAll collects every match for venue in w, paging when
// SearchPageSize is set. Transient failures are retried per SearchRetry.
func (h *Harvester) searchAll(ctx context.Context, w touringbot.Window, venue string) ([]*touringbot.SearchMatch, error) {
	policy := h.SearchRetry
	if policy.MaxAttempts == 0 {
		policy = DefaultSearchRetry
	}
	policy.Retryable = touringbot.IsTransient
	if policy.Sleep == nil {
		policy.Sleep = h.Sleep
	}
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		h.logger().Warn("retrying search", "venue", venue, "attempt", attempt, "delay", delay, "err", err)
	}

	var matches []*touringbot.SearchMatch
	offset := 0
	for {
		query := touringbot.SearchQuery{
			From:         w.From(),
			To:           w.To(),
			CollectionID: h.CollectionID,
			Keyword:      venue,
			Offset:       offset,
			Limit:        h.SearchPageSize,
		}
		var res *touringbot.SearchResult
		err := touringbot.Retry(ctx, policy, func(ctx context.Context) error {
			var err error
			res, err = h.Search.Search(ctx, query)
			return err
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, res.Matches...)

		if h.SearchPageSize <= 0 {
			break
		}
		offset += h.SearchPageSize
		if offset >= res.Total {
			break
		}
	}
	return matches, nil
}

// processMatch fetches the manifest and page documents of one match and
// extracts its passages. Skippable failures are logged and counted; only
// fatal errors are returned in err.
func (h *Harvester) processMatch(ctx context.Context, venue string, m *touringbot.SearchMatch) matchResult {
	var mr matchResult
	log := h.logger().With("venue", venue, "package", m.PackageID, "part", m.Part, "page", m.Page)

	skip := func(url string, err error) bool {
		if ctx.Err() != nil || !isSkippable(err) {
			mr.err = err
			return false
		}
		log.Warn("skipping page", "url", url, "err", err)
		mr.failures = append(mr.failures, pageFailure{url: url, err: err})
		return true
	}

	manifest, err := h.Fetcher.Fetch(ctx, m.URL)
	if err != nil {
		skip(m.URL, err)
		return mr
	}

	urls, err := h.Resolver.Resolve(manifest, []string{m.PageID})
	if err != nil {
		skip(m.URL, err)
		return mr
	}
	if len(urls) == 0 {
		skip(m.URL, touringbot.Errorf(touringbot.ENOTFOUND, "no ALTO document for %s", m.PageID))
		return mr
	}

	for _, page := range slices.Sorted(maps.Keys(urls)) {
		altoURL := urls[page]

		data, err := h.Fetcher.Fetch(ctx, altoURL)
		if err != nil {
			if !skip(altoURL, err) {
				return mr
			}
			continue
		}

		doc, err := h.Parser.Parse(data)
		if err != nil {
			if !skip(altoURL, err) {
				return mr
			}
			continue
		}
		mr.pages++

		date, _ := doc.Date()
		for text := range doc.Passages(venue, h.windowSize()) {
			mr.passages = append(mr.passages, pagePassage{
				Passage: touringbot.Passage{
					Date:      date,
					PackageID: m.PackageID,
					Part:      m.Part,
					Page:      page,
					Text:      text,
				},
				sourceRef: altoURL,
			})
		}
	}
	return mr
}

// batcher accumulates records for one venue and writes them in batches.
type batcher struct {
	h       *Harvester
	run     *run
	venue   string
	result  *Result
	batch   []*touringbot.Record
	pending map[string]bool
}

// add drops passages already seen in this run and queues the rest,
// flushing when the batch is full. The Bloom filter only rules out unseen
// identities; a hit is confirmed against the pending batch and the store.
func (b *batcher) add(ctx context.Context, p pagePassage) error {
	if p.Text == "" {
		return nil
	}
	b.result.Candidates++

	id := PassageID(p.PackageID, p.Part, p.Page, p.Text)
	if b.run.seen.SeenOrAdd(id) {
		if b.pending[id] {
			b.result.Duplicates++
			return nil
		}
		exists, err := b.h.Records.Exists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			b.result.Duplicates++
			return nil
		}
	}

	b.pending[id] = true
	b.batch = append(b.batch, &touringbot.Record{
		ID:        id,
		Date:      p.Date,
		PackageID: p.PackageID,
		Part:      p.Part,
		Page:      p.Page,
		Text:      p.Text,
		SourceRef: p.sourceRef,
		Venue:     b.venue,
		RunID:     b.run.id,
	})

	if len(b.batch) >= b.h.batchSize() {
		return b.flush(ctx)
	}
	return nil
}

func (b *batcher) flush(ctx context.Context) error {
	if len(b.batch) == 0 {
		return nil
	}
	n, err := b.h.Records.InsertBatch(ctx, b.batch)
	if err != nil {
		return err
	}
	b.result.Inserted += n
	b.result.Duplicates += len(b.batch) - n
	b.batch = nil
	clear(b.pending)
	return nil
}

// isSkippable reports whether err affects only the page or match at hand.
func isSkippable(err error) bool {
	switch touringbot.ErrorCode(err) {
	case touringbot.ERATELIMITED, touringbot.ENETWORK, touringbot.EHTTPSTATUS,
		touringbot.EMALFORMED, touringbot.ENOTFOUND, touringbot.EINVALID:
		return true
	}
	return false
}

func (h *Harvester) windowSize() int {
	switch {
	case h.WindowSize < 0:
		return 0
	case h.WindowSize == 0:
		return DefaultWindowSize
	}
	return h.WindowSize
}

func (h *Harvester) batchSize() int {
	if h.BatchSize > 0 {
		return h.BatchSize
	}
	return DefaultBatchSize
}

func (h *Harvester) sleep(ctx context.Context, d time.Duration) error {
	if h.Sleep != nil {
		return h.Sleep(ctx, d)
	}
	return touringbot.Sleep(ctx, d)
}

func (h *Harvester) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.New(slog.DiscardHandler)
}
